// Package cookiecodec builds and parses the Set-Cookie / Cookie header
// strings and the URL-encoded query/form data the OIDC flow exchanges with
// the browser and the token endpoint. It performs no cryptography and holds
// no state; every function is a pure string transformation.
package cookiecodec

import (
	"fmt"
	"net/url"
	"strings"
)

// Param is one key/value pair in a query string or form body. A slice of
// Param (rather than a map) keeps parameter order deterministic, which
// matters for reproducing the exact authorization redirect URL in tests.
type Param struct {
	Key   string
	Value string
}

// CookieName composes the mandatory cookie name for a given suffix
// ("state", "id-token", "access-token") and optional configured prefix,
// enforcing the __Host- naming convention.
func CookieName(prefix, suffix string) string {
	if prefix == "" {
		return "__Host-authservice-" + suffix + "-cookie"
	}
	return "__Host-" + prefix + "-authservice-" + suffix + "-cookie"
}

// EncodeSetCookie renders name=value plus the given directives, in the
// order supplied, joined with "; ". Directive order is the caller's
// responsibility so that output is stable across calls for the same input.
func EncodeSetCookie(name, value string, directives []string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)
	for _, d := range directives {
		b.WriteString("; ")
		b.WriteString(d)
	}
	return b.String()
}

// SessionCookieDirectives returns the mandatory directive set every session
// cookie must carry: HttpOnly, SameSite=Lax, Secure, Path=/, Max-Age=<t>.
func SessionCookieDirectives(maxAgeSeconds int64) []string {
	return []string{
		"HttpOnly",
		"SameSite=Lax",
		"Secure",
		"Path=/",
		fmt.Sprintf("Max-Age=%d", maxAgeSeconds),
	}
}

// DecodeCookies parses an HTTP Cookie request header into a name->value
// map. Cookies are split on ';', each pair trimmed and split on the first
// '='. When a name repeats, the last occurrence wins, matching how browsers
// serialize cookies from most-specific to least-specific path.
func DecodeCookies(header string) map[string]string {
	result := make(map[string]string)
	if header == "" {
		return result
	}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		name := strings.TrimSpace(part[:eq])
		value := strings.TrimSpace(part[eq+1:])
		result[name] = value
	}
	return result
}

// DecodePath splits a request path into its path component and the raw
// query-string tail, always returning two elements even when there is no
// '?', in which case the second is the empty string.
func DecodePath(path string) (string, string) {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		return path[:idx], path[idx+1:]
	}
	return path, ""
}

// DecodeQueryData parses a URL-encoded key/value sequence (a query string
// or a form body) into a map, returning an error on percent-decoding
// failure rather than silently dropping the malformed pair.
func DecodeQueryData(raw string) (map[string]string, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("cookiecodec: invalid URL-encoded data: %w", err)
	}
	result := make(map[string]string, len(values))
	for key, vs := range values {
		if len(vs) > 0 {
			result[key] = vs[0]
		}
	}
	return result, nil
}

// EncodeQueryData URL-encodes and joins params with '&', preserving order
// and repeated keys. Used to build the IdP authorization redirect query.
func EncodeQueryData(params []Param) string {
	return encodeParams(params)
}

// EncodeFormData is EncodeQueryData under a distinct name so call sites read
// as building a POST body rather than a query string.
func EncodeFormData(params []Param) string {
	return encodeParams(params)
}

func encodeParams(params []Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}
