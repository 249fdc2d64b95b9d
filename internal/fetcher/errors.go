package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for an empty identifier, before any request is made.
	ErrInvalidInput = errors.New("fetcher: empty identifier")

	// ErrTimeout is returned when a hop does not complete within the configured timeout.
	ErrTimeout = errors.New("fetcher: request timed out")

	// ErrRedirectLoop is returned when the redirect chain exceeds the hop limit.
	ErrRedirectLoop = errors.New("fetcher: too many redirects")

	// ErrBodyTooLarge is returned when the document exceeds the body size limit.
	ErrBodyTooLarge = errors.New("fetcher: response body too large")
)

// UpstreamError is a non-2xx response that was not followed as a redirect.
type UpstreamError struct {
	StatusCode int
	URL        string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("fetcher: upstream status %d (URL: %s)", e.StatusCode, e.URL)
}

// TransportError wraps a connection level failure.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetcher: transport error (URL: %s): %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Outcome labels returned by Kind.
const (
	KindOK             = "ok"
	KindInvalidInput   = "invalid_input"
	KindUpstreamStatus = "upstream_status"
	KindTimeout        = "timeout"
	KindTransport      = "transport"
	KindRedirectLoop   = "redirect_loop"
	KindBodyTooLarge   = "body_too_large"
	KindUnknown        = "unknown"
)

// Kind returns a stable label for the outcome of Fetch.
func Kind(err error) string {
	var upstreamErr *UpstreamError
	var transportErr *TransportError
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrRedirectLoop):
		return KindRedirectLoop
	case errors.Is(err, ErrBodyTooLarge):
		return KindBodyTooLarge
	case errors.As(err, &upstreamErr):
		return KindUpstreamStatus
	case errors.As(err, &transportErr):
		return KindTransport
	default:
		return KindUnknown
	}
}

// IsNotFound reports whether the upstream answered 404 for the document.
func IsNotFound(err error) bool {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode == 404
	}
	return false
}
