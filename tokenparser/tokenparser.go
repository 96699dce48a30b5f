// Package tokenparser implements the OidcFilter's TokenResponseParserPort:
// decoding the token endpoint's JSON body and verifying the ID token's
// signature, audience, and nonce before the filter trusts any of its claims.
package tokenparser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/openauthz/oidcauthzfilter/internal/logger"
	"github.com/openauthz/oidcauthzfilter/oidcfilter"
)

// tokenResponse mirrors the JSON body the IdP's token endpoint returns.
type tokenResponse struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
	ExpiresIn   *int64 `json:"expires_in"`
}

// Parser implements TokenResponseParserPort against a live JWKS endpoint.
type Parser struct {
	jwks   *keyfunc.JWKS
	issuer string
	logger logger.Logger
}

// New fetches and caches the IdP's JWKS document, refreshing it in the
// background on the schedule keyfunc.Options describes so a key rotation at
// the IdP doesn't require restarting the filter.
func New(jwksURL, issuer string, log logger.Logger) (*Parser, error) {
	if log == nil {
		log = logger.NoOp{}
	}
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			log.Errorf("tokenparser: background JWKS refresh failed: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tokenparser: fetching JWKS from %s: %w", jwksURL, err)
	}
	return &Parser{jwks: jwks, issuer: issuer, logger: log}, nil
}

// Parse validates the token response body against clientID and
// expectedNonce, returning ok=false for any failure: malformed JSON,
// missing id_token, bad signature, wrong audience, wrong nonce, or an
// unparsable expiry. It never returns partial trust: either every check
// passes or the caller gets nothing to act on.
func (p *Parser) Parse(clientID, expectedNonce string, rawBody []byte) (*oidcfilter.TokenResult, bool) {
	var body tokenResponse
	if err := json.Unmarshal(rawBody, &body); err != nil {
		p.logger.Infof("tokenparser: token response is not valid JSON: %v", err)
		return nil, false
	}
	if body.IDToken == "" {
		p.logger.Info("tokenparser: token response missing id_token")
		return nil, false
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(body.IDToken, claims, p.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256", "PS256"}))
	if err != nil || !token.Valid {
		p.logger.Infof("tokenparser: id_token signature/structure invalid: %v", err)
		return nil, false
	}

	if p.issuer != "" {
		iss, err := claims.GetIssuer()
		if err != nil || iss != p.issuer {
			p.logger.Info("tokenparser: id_token issuer mismatch")
			return nil, false
		}
	}

	if !audienceContains(claims, clientID) {
		p.logger.Info("tokenparser: id_token audience does not contain client_id")
		return nil, false
	}

	nonceClaim, _ := claims["nonce"].(string)
	if nonceClaim == "" || nonceClaim != expectedNonce {
		p.logger.Info("tokenparser: id_token nonce does not match expected nonce")
		return nil, false
	}

	return &oidcfilter.TokenResult{
		IDTokenJWT:    body.IDToken,
		AccessToken:   body.AccessToken,
		ExpirySeconds: body.ExpiresIn,
	}, true
}

func audienceContains(claims jwt.MapClaims, clientID string) bool {
	aud, err := claims.GetAudience()
	if err != nil {
		return false
	}
	for _, a := range aud {
		if a == clientID {
			return true
		}
	}
	return false
}
