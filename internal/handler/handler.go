package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"helphub/internal/auth"
	apperrors "helphub/internal/errors"
	"helphub/internal/policy"
)

// Context keys set by the authentication middleware.
const (
	ClaimsKey = "claims"
	ActorKey  = "actor"
)

// ActorFrom returns the authenticated actor stored on the request.
func ActorFrom(c echo.Context) (policy.Actor, error) {
	actor, ok := c.Get(ActorKey).(policy.Actor)
	if !ok {
		return policy.Actor{}, apperrors.ErrUnauthorized
	}
	return actor, nil
}

// ClaimsFrom returns the decoded token claims stored on the request.
func ClaimsFrom(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(ClaimsKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

// fail converts a domain error into an echo HTTP error. Internal failures
// are logged with attrs and answered with an opaque body.
func fail(c echo.Context, logger *slog.Logger, err error, attrs ...any) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.IsInternal() {
		attrs = append(attrs, "method", c.Request().Method, "path", c.Path(), "error", err)
		logger.ErrorContext(c.Request().Context(), "request failed", attrs...)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: message,
		Code:  "VALIDATION_ERROR",
	})
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return badRequest(err.Error())
	}
	return nil
}

func componentLogger(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", name)
}
