package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_StatusAndSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		status   int
		sentinel error
	}{
		{"not found", NotFound("product", "p-1"), http.StatusNotFound, ErrNotFound},
		{"invalid input", InvalidInput("city is required"), http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("host context required"), http.StatusUnauthorized, ErrUnauthorized},
		{"conflict", Conflict("SUBMISSION_IN_PROGRESS", "busy"), http.StatusConflict, ErrConflict},
		{"unavailable", ServiceUnavailable("CATALOG_UNAVAILABLE", "reload"), http.StatusServiceUnavailable, ErrServiceUnavail},
		{"upstream", Upstream("SUBMISSION_FAILED", "status 500", nil), http.StatusBadGateway, ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestUpstream_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Upstream("ENHANCEMENT_FAILED", "could not enhance", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPStatus_WrappedSentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("get session: %w", ErrNotFound)))
	assert.Equal(t, http.StatusConflict, HTTPStatus(fmt.Errorf("x: %w", ErrConflict)))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(fmt.Errorf("x: %w", ErrUpstream)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "INVALID_INPUT: phone number is required", InvalidInput("phone number is required").Error())
	assert.Contains(t, Internal(errors.New("disk")).Error(), "disk")
}
