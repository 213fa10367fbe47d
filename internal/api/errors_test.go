package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	withMessage := &Error{StatusCode: 409, Message: "email already taken", Err: ErrConflict}
	assert.Equal(t, "api: HTTP 409: email already taken", withMessage.Error())

	bare := &Error{StatusCode: 500, Err: ErrServerError}
	assert.Equal(t, "api: HTTP 500", bare.Error())
}

func TestErrorUnwrap(t *testing.T) {
	err := &Error{StatusCode: 404, Err: ErrNotFound}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestClassifyStatus(t *testing.T) {
	assert.ErrorIs(t, classifyStatus(400), ErrBadRequest)
	assert.ErrorIs(t, classifyStatus(401), ErrUnauthorized)
	assert.ErrorIs(t, classifyStatus(403), ErrForbidden)
	assert.ErrorIs(t, classifyStatus(404), ErrNotFound)
	assert.ErrorIs(t, classifyStatus(409), ErrConflict)
	assert.ErrorIs(t, classifyStatus(429), ErrThrottled)
	assert.ErrorIs(t, classifyStatus(500), ErrServerError)
	assert.ErrorIs(t, classifyStatus(503), ErrServerError)
	assert.NoError(t, classifyStatus(200))
	assert.NoError(t, classifyStatus(204))

	// Codes with no mapping of their own still classify to a sentinel.
	assert.ErrorIs(t, classifyStatus(302), ErrUnexpectedStatus)
	assert.ErrorIs(t, classifyStatus(418), ErrUnexpectedStatus)
}

func TestIsRetryable(t *testing.T) {
	retryable := []int{
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	}
	for _, code := range retryable {
		assert.True(t, isRetryable(code), "code %d", code)
	}

	for _, code := range []int{200, 400, 401, 403, 404, 409} {
		assert.False(t, isRetryable(code), "code %d", code)
	}
}
