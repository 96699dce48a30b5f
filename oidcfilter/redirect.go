package oidcfilter

import (
	"strings"

	"github.com/openauthz/oidcauthzfilter/cookiecodec"
	"github.com/openauthz/oidcauthzfilter/internal/oidcerrors"
	"github.com/openauthz/oidcauthzfilter/statecodec"
)

// joinQuery appends query to endpoint's existing query component, if any,
// instead of assuming endpoint carries none.
func joinQuery(endpoint, query string) string {
	if strings.Contains(endpoint, "?") {
		return endpoint + "&" + query
	}
	return endpoint + "?" + query
}

// redirectToIdP builds the 302 that sends the browser to the authorization
// endpoint, carrying a fresh state/nonce pair in an encrypted, browser-only
// cookie so RetrieveToken can later verify the callback belongs to this
// redirect and no other.
func (f *Filter) redirectToIdP() Decision {
	state, err := f.randomSource.Generate(32)
	if err != nil {
		return f.deny(oidcerrors.Wrap(oidcerrors.Internal, "generating state", err), 0, standardHeaders())
	}
	nonce, err := f.randomSource.Generate(32)
	if err != nil {
		return f.deny(oidcerrors.Wrap(oidcerrors.Internal, "generating nonce", err), 0, standardHeaders())
	}

	encoded, err := statecodec.Encode(state, nonce)
	if err != nil {
		return f.deny(oidcerrors.Wrap(oidcerrors.Internal, "encoding state payload", err), 0, standardHeaders())
	}
	encrypted, err := f.cryptor.Encrypt(encoded)
	if err != nil {
		return f.deny(oidcerrors.Wrap(oidcerrors.Internal, "encrypting state cookie", err), 0, standardHeaders())
	}

	authURL := f.buildAuthorizationURL(state, nonce)
	stateCookieName := cookiecodec.CookieName(f.cfg.CookieNamePrefix, "state")
	stateCookie := cookiecodec.EncodeSetCookie(stateCookieName, encrypted,
		cookiecodec.SessionCookieDirectives(f.cfg.CookieCSRFTimeout))

	headers := standardHeaders()
	headers = append(headers,
		Header{Name: "Location", Value: authURL},
		Header{Name: "Set-Cookie", Value: stateCookie},
	)
	return f.deny(oidcerrors.New(oidcerrors.Unauthenticated, "no session, redirecting to identity provider"), 302, headers)
}

// buildAuthorizationURL assembles the authorization endpoint URL with a
// deterministic parameter order, mandatory openid scope, and this
// redirect's freshly generated state and nonce.
func (f *Filter) buildAuthorizationURL(state, nonce string) string {
	scope := strings.Join(mergeScopes(f.cfg.Scopes), " ")
	query := cookiecodec.EncodeQueryData([]cookiecodec.Param{
		{Key: "response_type", Value: "code"},
		{Key: "scope", Value: scope},
		{Key: "client_id", Value: f.cfg.ClientID},
		{Key: "nonce", Value: nonce},
		{Key: "state", Value: state},
		{Key: "redirect_uri", Value: f.cfg.CallbackURI},
	})
	return joinQuery(f.cfg.AuthorizationEndpoint, query)
}
