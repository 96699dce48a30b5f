package oidcfilter

import "github.com/openauthz/oidcauthzfilter/internal/oidcerrors"

// Request is the decoded HTTP request descriptor Process needs. Headers are
// expected keyed by lower-case name, matching how an ext-authz transport
// canonicalizes them before handing the request to the filter.
type Request struct {
	Method  string
	Scheme  string
	Host    string
	Path    string
	Headers map[string]string
}

// Header is one name/value pair the caller should add to whatever response
// it sends downstream: a Set-Cookie, a Location, or an injected identity
// header on an allowed request.
type Header struct {
	Name  string
	Value string
}

// Decision is the filter's verdict on a Request.
type Decision struct {
	Allow bool
	Code  oidcerrors.Code
	// Message is the human-readable reason behind a denial, taken from the
	// *oidcerrors.Error that produced this Decision. Empty on an allow.
	Message string
	// HTTPStatus is only meaningful when Allow is false and is non-zero;
	// zero means the caller should apply its own default denial status.
	HTTPStatus int
	Headers    []Header
}

func allow(headers ...Header) Decision {
	return Decision{Allow: true, Code: oidcerrors.OK, Headers: headers}
}

// deny turns a failed branch's *oidcerrors.Error into a Decision, logging
// its full message (including any wrapped cause) before discarding the
// error itself; only its code and message cross into the Decision.
func (f *Filter) deny(err *oidcerrors.Error, status int, headers []Header) Decision {
	f.logger.Info(err.Error())
	return Decision{Allow: false, Code: err.Code, Message: err.Message, HTTPStatus: status, Headers: headers}
}
