// Package cryptor implements the OidcFilter's CryptorPort with authenticated
// encryption, so that a cookie value tampered with in transit or at rest in
// the browser is rejected at decrypt time rather than trusted.
package cryptor

import (
	"fmt"

	"github.com/gorilla/securecookie"
)

// domain binds every value this package encrypts to a fixed context string,
// so a ciphertext that securecookie produced under some other name is not
// accepted here. Every cookie this filter issues shares this one name, so
// it does not tell the state, id-token and access-token cookies apart.
const domain = "oidcauthzfilter"

// minKeyLength matches gorilla/securecookie's AES-256 block key requirement.
const minKeyLength = 32

// Cryptor implements the filter's CryptorPort using gorilla/securecookie,
// which HMACs and AES-encrypts the plaintext. Any modification of the
// ciphertext (a bit flip, truncation, or reuse under a different domain)
// fails Decrypt rather than silently returning corrupted plaintext.
type Cryptor struct {
	sc *securecookie.SecureCookie
}

// New builds a Cryptor from a hash key (authentication) and block key
// (AES-256 encryption). Both must be at least 32 bytes; short keys are
// rejected rather than silently truncated or padded.
func New(hashKey, blockKey []byte) (*Cryptor, error) {
	if len(hashKey) < minKeyLength {
		return nil, fmt.Errorf("cryptor: hash key must be at least %d bytes, got %d", minKeyLength, len(hashKey))
	}
	if len(blockKey) < minKeyLength {
		return nil, fmt.Errorf("cryptor: block key must be at least %d bytes, got %d", minKeyLength, len(blockKey))
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(0) // the filter enforces cookie lifetime via Max-Age, not the payload's own clock
	return &Cryptor{sc: sc}, nil
}

// Encrypt authenticates and encrypts plaintext into an opaque, cookie-safe string.
func (c *Cryptor) Encrypt(plaintext string) (string, error) {
	encoded, err := c.sc.Encode(domain, plaintext)
	if err != nil {
		return "", fmt.Errorf("cryptor: encrypt failed: %w", err)
	}
	return encoded, nil
}

// Decrypt reverses Encrypt. It returns ok=false, never an error the caller
// must inspect, because every call site treats "undecryptable" the same way
// regardless of cause: tampering, a wrong key, or a value from another domain.
func (c *Cryptor) Decrypt(ciphertext string) (plaintext string, ok bool) {
	var out string
	if err := c.sc.Decode(domain, ciphertext, &out); err != nil {
		return "", false
	}
	return out, true
}
