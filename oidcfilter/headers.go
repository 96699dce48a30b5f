package oidcfilter

import "strings"

// standardHeaders returns the headers attached to every denial the filter
// issues, telling any intermediate cache never to store the response.
func standardHeaders() []Header {
	return []Header{
		{Name: "Cache-Control", Value: "no-cache"},
		{Name: "Pragma", Value: "no-cache"},
	}
}

// encodeHeaderValue prefixes value with preamble and a single space, unless
// preamble is empty, in which case value is returned unchanged.
func encodeHeaderValue(preamble, value string) string {
	if preamble == "" {
		return value
	}
	return preamble + " " + value
}

// lookupHeader finds name in headers case-insensitively. Request headers
// arrive lower-cased from a well-behaved ext-authz transport, but header
// names configured by an operator (id_token.header_name and similar) are
// free-form, so membership checks against them stay case-insensitive too.
func lookupHeader(headers map[string]string, name string) (string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	lower := strings.ToLower(name)
	for k, v := range headers {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	return "", false
}

// mergeScopes returns "openid" followed by every entry in configured that
// is not itself "openid", so the mandatory scope is present exactly once
// regardless of what the operator configured.
func mergeScopes(configured []string) []string {
	scopes := make([]string, 0, len(configured)+1)
	scopes = append(scopes, "openid")
	for _, s := range configured {
		if s == "openid" {
			continue
		}
		scopes = append(scopes, s)
	}
	return scopes
}
