// Package statecodec serializes the (state, nonce) pair carried inside the
// encrypted state cookie between the redirect to the IdP and the callback.
package statecodec

import (
	"fmt"
	"strings"
)

// separator cannot appear in a value produced by randomsource.Source.Generate,
// which only emits base64.RawURLEncoding output ([A-Za-z0-9_-]).
const separator = " "

// Payload is the (state, nonce) pair encoded into the state cookie.
type Payload struct {
	State string
	Nonce string
}

// Encode renders a Payload as a single opaque string suitable for encryption
// and storage in the state cookie. The encoding is bijective with Decode for
// any state/nonce pair that does not itself contain the separator.
func Encode(state, nonce string) (string, error) {
	if state == "" || nonce == "" {
		return "", fmt.Errorf("statecodec: state and nonce must both be non-empty")
	}
	if strings.Contains(state, separator) || strings.Contains(nonce, separator) {
		return "", fmt.Errorf("statecodec: state and nonce must not contain the %q framing character", separator)
	}
	return state + separator + nonce, nil
}

// Decode reverses Encode. It fails closed: any framing violation (a missing
// separator, an extra separator, or an empty side) is reported as an error
// rather than silently accepted.
func Decode(encoded string) (Payload, error) {
	parts := strings.Split(encoded, separator)
	if len(parts) != 2 {
		return Payload{}, fmt.Errorf("statecodec: malformed payload: expected exactly one %q separator, found %d", separator, len(parts)-1)
	}
	state, nonce := parts[0], parts[1]
	if state == "" || nonce == "" {
		return Payload{}, fmt.Errorf("statecodec: malformed payload: state and nonce must both be non-empty")
	}
	return Payload{State: state, Nonce: nonce}, nil
}
