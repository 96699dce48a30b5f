// Package httpclient implements the OidcFilter's HttpClientPort: the single
// outbound POST to the IdP's token endpoint performed during RetrieveToken.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/openauthz/oidcauthzfilter/oidcfilter"
)

// Config tunes the transport backing Client. Defaults favor the token
// exchange's shape: one short-lived POST per callback, not a long-lived
// connection pool serving many concurrent downstream calls.
type Config struct {
	Timeout               time.Duration
	DialTimeout           time.Duration
	KeepAlive             time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
}

// DefaultConfig returns sane defaults for talking to a token endpoint.
func DefaultConfig() Config {
	return Config{
		Timeout:               5 * time.Second,
		DialTimeout:           5 * time.Second,
		KeepAlive:             15 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ResponseHeaderTimeout: 3 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
	}
}

// TokenClientConfig returns configuration tuned for the token endpoint
// specifically: a slightly longer response-header timeout, since a token
// endpoint doing an upstream call of its own (introspection, a call to its
// own IdP backend) is common and shouldn't be penalized by a transport
// timeout meant for a plain reverse-proxied API.
func TokenClientConfig() Config {
	cfg := DefaultConfig()
	cfg.ResponseHeaderTimeout = 5 * time.Second
	return cfg
}

// Client implements oidcfilter's HttpClientPort with a real *http.Client.
type Client struct {
	http *http.Client
}

// New builds a Client from Config, wiring a bounded connection pool and
// per-request timeout rather than relying on http.DefaultClient's unbounded
// defaults.
func New(cfg Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
	}
	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// Post performs the single blocking POST the token exchange needs. A
// non-nil error means no response was obtained at all (dial failure,
// timeout, or a body that could not be read), which the caller maps to
// INTERNAL. The context deadline is propagated so a slow IdP cannot pin
// the calling goroutine past the caller's own timeout.
func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body string) (*oidcfilter.HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpclient: building request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: reading response body: %w", err)
	}

	return &oidcfilter.HTTPResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}
