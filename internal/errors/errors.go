package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTicketNotFound is returned when a ticket does not exist.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrForbidden is returned when the actor may not touch the resource.
	ErrForbidden = errors.New("not authorized to access this resource")
	// ErrAdminRequired is returned when a non-admin calls an admin operation.
	ErrAdminRequired = errors.New("admin privileges required")
	// ErrNoFields is returned when an update carries nothing the actor may change.
	ErrNoFields = errors.New("no fields to update")
	// ErrUserAlreadyExists is returned when username or email is taken.
	ErrUserAlreadyExists = errors.New("username or email already registered")
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrUnauthorized is returned when the caller could not be authenticated.
	ErrUnauthorized = errors.New("could not validate credentials")
	// ErrSessionNotInitialized is returned when chat send precedes chat init.
	ErrSessionNotInitialized = errors.New("session not initialized, refresh the page")
	// ErrModelUnavailable is returned when the assistant model fails or times out.
	ErrModelUnavailable = errors.New("assistant is unavailable")
)

// ValidationError reports bad input shape or length.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// IsInternal reports whether the error is an unexpected failure hidden
// behind the opaque 500. Mapped outages such as MODEL_UNAVAILABLE are not.
func (e *HTTPError) IsInternal() bool {
	return e.StatusCode == http.StatusInternalServerError
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unknown is
// treated as a storage failure and hidden behind a generic 500.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return NewHTTPError(http.StatusBadRequest, verr.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrTicketNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "TICKET_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrAdminRequired):
		return NewHTTPError(http.StatusForbidden, err.Error(), "ADMIN_REQUIRED")
	case errors.Is(err, ErrNoFields):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "NO_FIELDS")
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrSessionNotInitialized):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "SESSION_NOT_INITIALIZED")
	case errors.Is(err, ErrModelUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error(), "MODEL_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
