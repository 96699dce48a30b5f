package oidcfilter

import (
	"context"
	"fmt"
	"net/url"

	"github.com/openauthz/oidcauthzfilter/cookiecodec"
	"github.com/openauthz/oidcauthzfilter/internal/logger"
	"github.com/openauthz/oidcauthzfilter/internal/oidcerrors"
)

// Filter holds the config and collaborators behind one deployment's OIDC
// decision logic. It is safe for concurrent use: every field is either
// immutable after New or itself safe for concurrent use, and Process never
// mutates Filter state.
type Filter struct {
	cfg          Config
	callbackURL  *url.URL
	cryptor      CryptorPort
	httpClient   HTTPClientPort
	tokenParser  TokenResponseParserPort
	randomSource RandomSourcePort
	logger       logger.Logger
}

// New builds a Filter, validating cfg and parsing its callback URI once so
// Process never has to.
func New(cfg Config, cryptor CryptorPort, httpClient HTTPClientPort, tokenParser TokenResponseParserPort, randomSource RandomSourcePort, log logger.Logger) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	callbackURL, err := url.Parse(cfg.CallbackURI)
	if err != nil {
		return nil, fmt.Errorf("oidcfilter: parsing callback_uri: %w", err)
	}
	if log == nil {
		log = logger.NoOp{}
	}
	return &Filter{
		cfg:          cfg,
		callbackURL:  callbackURL,
		cryptor:      cryptor,
		httpClient:   httpClient,
		tokenParser:  tokenParser,
		randomSource: randomSource,
		logger:       log,
	}, nil
}

// Process is the filter's entry point, implementing the decision tree in
// order: reject malformed requests, pass through requests that already
// carry an identity header, pass through requests bearing a valid
// session cookie, complete the token exchange on the callback path, and
// otherwise redirect to the IdP.
func (f *Filter) Process(ctx context.Context, req Request) Decision {
	path, query := cookiecodec.DecodePath(req.Path)
	log := f.logger.WithField("path", path)
	log.Debugf("request received scheme=%s host=%s", req.Scheme, req.Host)

	if req.Scheme == "" || req.Host == "" || req.Path == "" || req.Headers == nil {
		return f.deny(oidcerrors.InvalidArg("malformed request descriptor"), 0, standardHeaders())
	}
	if f.cfg.RequireHTTPS && req.Scheme != "https" {
		return f.deny(oidcerrors.InvalidArg("request scheme is not https"), 0, standardHeaders())
	}

	if _, ok := lookupHeader(req.Headers, f.cfg.IDTokenHeader.Name); ok {
		log.Debug("request already carries an id token header, allowing")
		return allow()
	}

	cookieHeader, _ := lookupHeader(req.Headers, "cookie")
	cookies := cookiecodec.DecodeCookies(cookieHeader)
	if decision, ok := f.tryCookiePassthrough(cookies); ok {
		return decision
	}

	if req.Host == f.callbackURL.Hostname() && path == f.callbackURL.Path {
		log.Debug("request matches callback path, retrieving token")
		return f.retrieveToken(ctx, cookies, query)
	}

	log.Debug("no session, redirecting to identity provider")
	return f.redirectToIdP()
}

// tryCookiePassthrough allows the request when both cookies decrypt to
// valid tokens the configuration requires. It never allows on a partial
// match: if an access token is configured but its cookie is missing or
// undecryptable, the caller falls through to redirectToIdP instead of
// forwarding a request with only half the expected identity.
func (f *Filter) tryCookiePassthrough(cookies map[string]string) (Decision, bool) {
	idCookieName := cookiecodec.CookieName(f.cfg.CookieNamePrefix, "id-token")
	encID, ok := cookies[idCookieName]
	if !ok {
		return Decision{}, false
	}
	idToken, ok := f.cryptor.Decrypt(encID)
	if !ok {
		return Decision{}, false
	}

	headers := []Header{{
		Name:  f.cfg.IDTokenHeader.Name,
		Value: encodeHeaderValue(f.cfg.IDTokenHeader.Preamble, idToken),
	}}

	if f.cfg.AccessTokenHeader.Name == "" {
		return allow(headers...), true
	}

	accessCookieName := cookiecodec.CookieName(f.cfg.CookieNamePrefix, "access-token")
	encAccess, ok := cookies[accessCookieName]
	if !ok {
		return Decision{}, false
	}
	accessToken, ok := f.cryptor.Decrypt(encAccess)
	if !ok {
		return Decision{}, false
	}
	headers = append(headers, Header{
		Name:  f.cfg.AccessTokenHeader.Name,
		Value: encodeHeaderValue(f.cfg.AccessTokenHeader.Preamble, accessToken),
	})
	return allow(headers...), true
}
