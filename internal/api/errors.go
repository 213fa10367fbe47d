// Package api provides an HTTP client for the idrop.link backend API
// with automatic retry, error classification, and multipart drop uploads.
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, api.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("api: bad request")
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
	ErrNotFound     = errors.New("api: not found")
	ErrConflict     = errors.New("api: conflict")
	ErrThrottled    = errors.New("api: throttled")
	ErrServerError  = errors.New("api: server error")

	// ErrUnexpectedStatus covers non-2xx codes with no mapping of their
	// own (e.g. an unfollowed redirect), so every *Error matches some
	// sentinel under errors.Is.
	ErrUnexpectedStatus = errors.New("api: unexpected status")

	// ErrTransport marks failures where no HTTP response was obtained at
	// all. Callers use this to tell connectivity loss apart from an error
	// the backend actually returned.
	ErrTransport = errors.New("api: transport failure")

	// ErrMalformedResponse marks 2xx responses missing an expected field
	// (no token, no id, no url).
	ErrMalformedResponse = errors.New("api: malformed response")
)

// Error wraps a sentinel error with the HTTP status code and the backend's
// "message" field (when present) for user display.
type Error struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("api: HTTP %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		if code >= http.StatusOK && code < http.StatusMultipleChoices {
			return nil
		}

		return ErrUnexpectedStatus
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
