// Package oidcerrors gives the filter's decision logic a small, structured
// error type that carries the canonical ext-authz RPC code alongside a
// human-readable message, without ever carrying token/state/nonce content.
package oidcerrors

import "fmt"

// Code is one of the canonical RPC codes the ext-authz contract exposes.
type Code string

const (
	OK              Code = "OK"
	Unauthenticated Code = "UNAUTHENTICATED"
	InvalidArgument Code = "INVALID_ARGUMENT"
	Internal        Code = "INTERNAL"
	Unknown         Code = "UNKNOWN"
)

// Error is the structured error the filter returns from a failed branch.
type Error struct {
	Code     Code
	Message  string
	Internal error
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Internal }

// New builds an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error carrying an internal cause. The cause is never
// rendered into the RPC response, only logged by the caller if it chooses to.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Internal: cause}
}

// InvalidArg is a shorthand for the most common branch outcome in the
// state machine: malformed input, CSRF mismatch, undecryptable cookie.
func InvalidArg(message string) *Error {
	return New(InvalidArgument, message)
}
