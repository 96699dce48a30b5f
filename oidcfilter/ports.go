// Package oidcfilter implements the OIDC authorization decision: given a
// downstream request descriptor, it decides whether to allow the request
// through (optionally injecting identity headers), redirect the browser to
// the IdP, or complete the authorization code exchange on callback.
//
// The filter depends on its collaborators only through the small port
// interfaces declared in this file. Concrete implementations live in
// sibling packages (cryptor, httpclient, tokenparser, randomsource) and are
// wired together by the caller, keeping this package free of any concrete
// transport, crypto, or JWT library import.
package oidcfilter

import "context"

// CryptorPort authenticates and encrypts cookie payloads so a value
// tampered with in the browser is rejected rather than trusted.
type CryptorPort interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (plaintext string, ok bool)
}

// HTTPResponse is the {status, body} pair returned by a successful
// HttpClientPort call.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

// HTTPClientPort performs the single outbound POST RetrieveToken needs to
// exchange an authorization code for tokens. A non-nil error means no
// response was obtained at all; the filter maps that to INTERNAL.
type HTTPClientPort interface {
	Post(ctx context.Context, url string, headers map[string]string, body string) (*HTTPResponse, error)
}

// TokenResult is what a successful TokenResponseParserPort call yields.
type TokenResult struct {
	IDTokenJWT  string
	AccessToken string
	// ExpirySeconds is nil when the token response carried no usable
	// expiry, in which case the filter treats the session as unbounded.
	ExpirySeconds *int64
}

// TokenResponseParserPort decodes and validates the token endpoint's JSON
// body: signature, issuer, audience, and nonce all have to check out
// before the filter will trust anything the response claims.
type TokenResponseParserPort interface {
	Parse(clientID, expectedNonce string, rawBody []byte) (*TokenResult, bool)
}

// RandomSourcePort draws the entropy behind the OIDC state and nonce
// values. It is a port rather than a concrete dependency purely so tests
// can substitute a deterministic source.
type RandomSourcePort interface {
	Generate(n int) (string, error)
}
