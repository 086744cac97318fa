package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{NewValidationError("query", "too short"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("create: %w", NewValidationError("query", "too short")), http.StatusBadRequest, "VALIDATION_ERROR"},
		{ErrTicketNotFound, http.StatusNotFound, "TICKET_NOT_FOUND"},
		{fmt.Errorf("get: %w", ErrTicketNotFound), http.StatusNotFound, "TICKET_NOT_FOUND"},
		{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{ErrAdminRequired, http.StatusForbidden, "ADMIN_REQUIRED"},
		{ErrNoFields, http.StatusBadRequest, "NO_FIELDS"},
		{ErrUserAlreadyExists, http.StatusBadRequest, "USER_ALREADY_EXISTS"},
		{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{ErrSessionNotInitialized, http.StatusBadRequest, "SESSION_NOT_INITIALIZED"},
		{ErrModelUnavailable, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.Code)
			assert.False(t, httpErr.IsInternal())
		})
	}
}

func TestMapErrorToHTTP_HidesStorageErrors(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.True(t, httpErr.IsInternal())
	assert.Equal(t, ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}, httpErr.ToErrorResponse())
}

func TestHTTPError_IsInternal(t *testing.T) {
	tests := []struct {
		err      *HTTPError
		internal bool
	}{
		{MapErrorToHTTP(ErrModelUnavailable), false},
		{MapErrorToHTTP(ErrTicketNotFound), false},
		{MapErrorToHTTP(errors.New("disk full")), true},
		{NewHTTPError(http.StatusBadGateway, "upstream", "BAD_GATEWAY"), false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.internal, tt.err.IsInternal())
		})
	}
}
