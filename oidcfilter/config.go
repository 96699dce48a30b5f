package oidcfilter

import (
	"fmt"
	"net/url"
)

// TokenHeaderConfig describes how a validated token is injected as an
// upstream request header: which header name carries it, and what (if
// any) preamble word precedes the value, mirroring the way an
// Authorization header carries "Bearer " before the token itself.
type TokenHeaderConfig struct {
	Name     string
	Preamble string
}

// Config is the filter's static configuration, sourced from
// internal/config and validated once at construction time.
type Config struct {
	AuthorizationEndpoint string
	TokenEndpoint         string
	CallbackURI           string
	LandingPageURI        string
	ClientID              string
	ClientSecret          string
	Scopes                []string
	CookieNamePrefix      string
	CookieCSRFTimeout     int64

	IDTokenHeader TokenHeaderConfig
	// AccessTokenHeader.Name is empty when the deployment does not want
	// the access token forwarded as a header at all.
	AccessTokenHeader TokenHeaderConfig

	// RequireHTTPS rejects any request whose scheme is not "https", right
	// after the malformed-request check and before any other branch.
	// internal/config defaults it to true; only ever false in a
	// deployment that terminates TLS somewhere the filter is told to trust.
	RequireHTTPS bool
}

// Validate checks the fields Process, RedirectToIdP, and RetrieveToken rely
// on being present and well-formed, returning every problem it finds joined
// as an error rather than stopping at the first.
func (c Config) Validate() error {
	var problems []string
	if c.AuthorizationEndpoint == "" {
		problems = append(problems, "authorization_endpoint is required")
	}
	if c.TokenEndpoint == "" {
		problems = append(problems, "token_endpoint is required")
	}
	if c.ClientID == "" {
		problems = append(problems, "client_id is required")
	}
	if c.ClientSecret == "" {
		problems = append(problems, "client_secret is required")
	}
	if c.LandingPageURI == "" {
		problems = append(problems, "landing_page is required")
	}
	if c.IDTokenHeader.Name == "" {
		problems = append(problems, "id_token.header_name is required")
	}
	parsed, err := parseCallbackURI(c.CallbackURI)
	if err != nil {
		problems = append(problems, err.Error())
	} else if parsed.Host == "" {
		problems = append(problems, "callback_uri must include a host")
	}
	if len(problems) > 0 {
		return fmt.Errorf("oidcfilter: invalid config: %v", problems)
	}
	return nil
}

func parseCallbackURI(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("callback_uri is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("callback_uri is not a valid URL: %w", err)
	}
	return u, nil
}
