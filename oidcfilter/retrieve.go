package oidcfilter

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"math"

	"github.com/openauthz/oidcauthzfilter/cookiecodec"
	"github.com/openauthz/oidcauthzfilter/internal/oidcerrors"
	"github.com/openauthz/oidcauthzfilter/statecodec"
)

// retrieveToken completes the authorization code exchange on a callback
// request. The state cookie is deleted unconditionally as the first step,
// before its contents are even inspected, so a callback is never replayable
// against the same state cookie twice regardless of how far the exchange
// gets.
func (f *Filter) retrieveToken(ctx context.Context, cookies map[string]string, rawQuery string) Decision {
	stateCookieName := cookiecodec.CookieName(f.cfg.CookieNamePrefix, "state")
	deletionCookie := cookiecodec.EncodeSetCookie(stateCookieName, "deleted",
		cookiecodec.SessionCookieDirectives(0))
	headers := standardHeaders()
	headers = append(headers, Header{Name: "Set-Cookie", Value: deletionCookie})

	fail := func(err *oidcerrors.Error) Decision {
		return f.deny(err, 0, headers)
	}

	encState, ok := cookies[stateCookieName]
	if !ok {
		return fail(oidcerrors.InvalidArg("missing state cookie"))
	}
	statePlain, ok := f.cryptor.Decrypt(encState)
	if !ok {
		return fail(oidcerrors.InvalidArg("state cookie failed to decrypt"))
	}
	payload, err := statecodec.Decode(statePlain)
	if err != nil {
		return fail(oidcerrors.InvalidArg("state cookie payload malformed"))
	}

	queryData, err := cookiecodec.DecodeQueryData(rawQuery)
	if err != nil {
		return fail(oidcerrors.InvalidArg("callback query string malformed"))
	}
	queryState, hasState := queryData["state"]
	code, hasCode := queryData["code"]
	if !hasState || !hasCode {
		return fail(oidcerrors.InvalidArg("callback query missing state or code"))
	}
	if !constantTimeEqual(queryState, payload.State) {
		return fail(oidcerrors.InvalidArg("callback state does not match state cookie"))
	}

	resp, err := f.exchangeCode(ctx, code)
	if err != nil {
		return fail(oidcerrors.Wrap(oidcerrors.Internal, "token endpoint request failed", err))
	}
	if resp.StatusCode != 200 {
		return fail(oidcerrors.New(oidcerrors.Unknown, "token endpoint returned non-200 status"))
	}

	result, ok := f.tokenParser.Parse(f.cfg.ClientID, payload.Nonce, resp.Body)
	if !ok {
		return fail(oidcerrors.InvalidArg("token response failed validation"))
	}
	if f.cfg.AccessTokenHeader.Name != "" && result.AccessToken == "" {
		return fail(oidcerrors.InvalidArg("token response missing required access_token"))
	}

	var timeoutSeconds int64 = math.MaxInt64
	if result.ExpirySeconds != nil {
		timeoutSeconds = *result.ExpirySeconds
	}

	if f.cfg.AccessTokenHeader.Name != "" {
		encAccess, err := f.cryptor.Encrypt(result.AccessToken)
		if err != nil {
			return fail(oidcerrors.Wrap(oidcerrors.Internal, "failed to encrypt access token", err))
		}
		accessCookieName := cookiecodec.CookieName(f.cfg.CookieNamePrefix, "access-token")
		headers = append(headers, Header{
			Name: "Set-Cookie",
			Value: cookiecodec.EncodeSetCookie(accessCookieName, encAccess,
				cookiecodec.SessionCookieDirectives(timeoutSeconds)),
		})
	}

	encID, err := f.cryptor.Encrypt(result.IDTokenJWT)
	if err != nil {
		return fail(oidcerrors.Wrap(oidcerrors.Internal, "failed to encrypt id token", err))
	}
	idCookieName := cookiecodec.CookieName(f.cfg.CookieNamePrefix, "id-token")
	headers = append(headers, Header{
		Name: "Set-Cookie",
		Value: cookiecodec.EncodeSetCookie(idCookieName, encID,
			cookiecodec.SessionCookieDirectives(timeoutSeconds)),
	})
	headers = append(headers, Header{Name: "Location", Value: f.cfg.LandingPageURI})

	return f.deny(oidcerrors.New(oidcerrors.Unauthenticated, "token exchange complete, redirecting to landing page"), 302, headers)
}

func (f *Filter) exchangeCode(ctx context.Context, code string) (*HTTPResponse, error) {
	basicAuth := base64.StdEncoding.EncodeToString([]byte(f.cfg.ClientID + ":" + f.cfg.ClientSecret))
	body := cookiecodec.EncodeFormData([]cookiecodec.Param{
		{Key: "code", Value: code},
		{Key: "redirect_uri", Value: f.cfg.CallbackURI},
		{Key: "grant_type", Value: "authorization_code"},
	})
	reqHeaders := map[string]string{
		"Content-Type":  "application/x-www-form-urlencoded",
		"Authorization": "Basic " + basicAuth,
	}
	return f.httpClient.Post(ctx, f.cfg.TokenEndpoint, reqHeaders, body)
}

// constantTimeEqual compares two CSRF state values without leaking timing
// information about how many leading bytes matched.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
