package robot

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Sentinel errors. The typed errors below match them with errors.Is.
var (
	ErrTokenFormat  = errors.New("robot: token format error")
	ErrConfigFormat = errors.New("robot: config format error")
	ErrTransport    = errors.New("robot: transport error")
	ErrDelivery     = errors.New("robot: delivery error")
)

// TokenFormatError reports a credential string with an unknown prefix.
type TokenFormatError struct {
	// Prefix is the part before the first ':' (or the whole input when it
	// has none, truncated). The credential itself is never kept.
	Prefix string
}

func (e *TokenFormatError) Error() string {
	return fmt.Sprintf("robot: token format error: unknown prefix %q", e.Prefix)
}

func (e *TokenFormatError) Is(target error) bool { return target == ErrTokenFormat }

func newTokenFormatError(token string) *TokenFormatError {
	prefix, _, _ := strings.Cut(token, ":")
	if len(prefix) > 16 {
		prefix = prefix[:16] + "..."
	}
	return &TokenFormatError{Prefix: prefix}
}

// TransportError wraps a failure to reach the endpoint.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "robot: transport error: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// newTransportError wraps err. The request URL carries the access token and
// signature in its query, so query values of a *url.Error are redacted.
func newTransportError(err error) *TransportError {
	var ue *url.Error
	if errors.As(err, &ue) {
		redacted := *ue
		redacted.URL = RedactURL(ue.URL)
		err = &redacted
	}
	return &TransportError{Err: err}
}

// RedactURL replaces every query value of rawURL with "***", keeping the
// keys and their order.
func RedactURL(rawURL string) string {
	base, query, ok := strings.Cut(rawURL, "?")
	if !ok {
		return rawURL
	}
	query, fragment, hasFragment := strings.Cut(query, "#")
	params := strings.Split(query, "&")
	for i, p := range params {
		if k, _, ok := strings.Cut(p, "="); ok {
			params[i] = k + "=***"
		}
	}
	out := base + "?" + strings.Join(params, "&")
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

// DeliveryError reports a response with a status other than 200.
type DeliveryError struct {
	StatusCode int
	// Body holds the start of the response body, if any.
	Body string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("robot: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("robot: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }
