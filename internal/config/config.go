// Package config loads the filter's OIDC configuration from a YAML file,
// then layers environment variable overrides on top, the way the traefik
// plugin this filter descends from merges a static config with per-deployment
// overrides. Unlike that plugin, there is no Traefik dynamic-config object to
// bind to: the filter runs as a standalone ext-authz server, so config comes
// from a file path and the process environment only.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openauthz/oidcauthzfilter/oidcfilter"
)

// envPrefix namespaces every environment variable this package reads, so a
// deployment's other env vars can never accidentally collide with ours.
const envPrefix = "OIDCFILTER_"

// File is the on-disk shape of the YAML config file, kept separate from
// oidcfilter.Config so the wire format (snake_case, nested header blocks)
// can evolve independently of the in-memory struct the filter consumes.
type File struct {
	AuthorizationEndpoint string   `yaml:"authorization_endpoint"`
	TokenEndpoint         string   `yaml:"token_endpoint"`
	JWKSEndpoint          string   `yaml:"jwks_endpoint"`
	Issuer                string   `yaml:"issuer"`
	CallbackURI           string   `yaml:"callback_uri"`
	LandingPage           string   `yaml:"landing_page"`
	ClientID              string   `yaml:"client_id"`
	ClientSecret          string   `yaml:"client_secret"`
	Scopes                []string `yaml:"scopes"`
	CookieNamePrefix      string   `yaml:"cookie_name_prefix"`
	CookieCSRFTimeout     int64    `yaml:"cookie_csrf_timeout_seconds"`
	RequireHTTPS          *bool    `yaml:"require_https"`

	IDToken struct {
		HeaderName string `yaml:"header_name"`
		Preamble   string `yaml:"preamble"`
	} `yaml:"id_token"`

	AccessToken struct {
		HeaderName string `yaml:"header_name"`
		Preamble   string `yaml:"preamble"`
	} `yaml:"access_token"`

	LogLevel string `yaml:"log_level"`

	CryptorHashKey  string `yaml:"cryptor_hash_key"`
	CryptorBlockKey string `yaml:"cryptor_block_key"`
}

// Loaded is everything internal/config produces: the filter's Config plus
// the handful of settings (JWKS endpoint, issuer, log level, cryptor keys)
// that oidcfilter.Config itself has no field for because they belong to its
// collaborators rather than to the filter's own decision logic.
type Loaded struct {
	Filter          oidcfilter.Config
	JWKSEndpoint    string
	Issuer          string
	LogLevel        string
	CryptorHashKey  []byte
	CryptorBlockKey []byte
}

// defaults mirrors CreateConfig's role in the traefik plugin: a starting
// point good enough to run against, with security-relevant fields defaulted
// to the strict setting rather than left zero-valued.
func defaults() File {
	f := File{
		CookieCSRFTimeout: 600,
		LogLevel:          "info",
	}
	f.IDToken.HeaderName = "x-forwarded-id-token"
	f.IDToken.Preamble = "Bearer"
	requireHTTPS := true
	f.RequireHTTPS = &requireHTTPS
	return f
}

// Load reads path (a YAML file), applies OIDCFILTER_-prefixed environment
// overrides, and validates the result. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (*Loaded, error) {
	file := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(&file)

	requireHTTPS := true
	if file.RequireHTTPS != nil {
		requireHTTPS = *file.RequireHTTPS
	}

	filterCfg := oidcfilter.Config{
		AuthorizationEndpoint: file.AuthorizationEndpoint,
		TokenEndpoint:         file.TokenEndpoint,
		CallbackURI:           file.CallbackURI,
		LandingPageURI:        file.LandingPage,
		ClientID:              file.ClientID,
		ClientSecret:          file.ClientSecret,
		Scopes:                file.Scopes,
		CookieNamePrefix:      file.CookieNamePrefix,
		CookieCSRFTimeout:     file.CookieCSRFTimeout,
		RequireHTTPS:          requireHTTPS,
		IDTokenHeader: oidcfilter.TokenHeaderConfig{
			Name:     file.IDToken.HeaderName,
			Preamble: file.IDToken.Preamble,
		},
		AccessTokenHeader: oidcfilter.TokenHeaderConfig{
			Name:     file.AccessToken.HeaderName,
			Preamble: file.AccessToken.Preamble,
		},
	}
	if err := filterCfg.Validate(); err != nil {
		return nil, err
	}
	if file.JWKSEndpoint == "" {
		return nil, fmt.Errorf("config: jwks_endpoint is required")
	}
	if len(file.CryptorHashKey) < 32 || len(file.CryptorBlockKey) < 32 {
		return nil, fmt.Errorf("config: cryptor_hash_key and cryptor_block_key must both be at least 32 bytes")
	}

	return &Loaded{
		Filter:          filterCfg,
		JWKSEndpoint:    file.JWKSEndpoint,
		Issuer:          file.Issuer,
		LogLevel:        file.LogLevel,
		CryptorHashKey:  []byte(file.CryptorHashKey),
		CryptorBlockKey: []byte(file.CryptorBlockKey),
	}, nil
}

// applyEnvOverrides walks the fields a deployment is most likely to need to
// override without editing the checked-in YAML file: secrets and endpoints.
func applyEnvOverrides(f *File) {
	if v := os.Getenv(envPrefix + "CLIENT_ID"); v != "" {
		f.ClientID = v
	}
	if v := os.Getenv(envPrefix + "CLIENT_SECRET"); v != "" {
		f.ClientSecret = v
	}
	if v := os.Getenv(envPrefix + "AUTHORIZATION_ENDPOINT"); v != "" {
		f.AuthorizationEndpoint = v
	}
	if v := os.Getenv(envPrefix + "TOKEN_ENDPOINT"); v != "" {
		f.TokenEndpoint = v
	}
	if v := os.Getenv(envPrefix + "JWKS_ENDPOINT"); v != "" {
		f.JWKSEndpoint = v
	}
	if v := os.Getenv(envPrefix + "ISSUER"); v != "" {
		f.Issuer = v
	}
	if v := os.Getenv(envPrefix + "CALLBACK_URI"); v != "" {
		f.CallbackURI = v
	}
	if v := os.Getenv(envPrefix + "LANDING_PAGE"); v != "" {
		f.LandingPage = v
	}
	if v := os.Getenv(envPrefix + "CRYPTOR_HASH_KEY"); v != "" {
		f.CryptorHashKey = v
	}
	if v := os.Getenv(envPrefix + "CRYPTOR_BLOCK_KEY"); v != "" {
		f.CryptorBlockKey = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		f.LogLevel = v
	}
	if v := os.Getenv(envPrefix + "SCOPES"); v != "" {
		f.Scopes = strings.Split(v, ",")
	}
	if v := os.Getenv(envPrefix + "REQUIRE_HTTPS"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			f.RequireHTTPS = &parsed
		}
	}
}
