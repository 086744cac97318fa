package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"helphub/internal/auth"
	"helphub/internal/config"
	apperrors "helphub/internal/errors"
	"helphub/internal/fragment"
	"helphub/internal/handler"
	"helphub/internal/metrics"
	"helphub/internal/policy"
	"helphub/internal/service"
)

const htmxPrefix = "/htmx"

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth    *handler.AuthHandler
	Tickets *handler.TicketHandler
	Admin   *handler.AdminHandler
	Chat    *handler.ChatHandler
	Health  *handler.HealthHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	jwtService *auth.JWTService,
	authService service.AuthService,
	h Handlers,
) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	renderer, err := fragment.NewRenderer()
	if err != nil {
		return fmt.Errorf("parse fragments: %w", err)
	}
	e.Renderer = renderer
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "HX-Request", "HX-Target", "HX-Trigger"},
	}))
	e.Use(metrics.Middleware())

	e.GET("/healthz", h.Health.Live)
	e.GET("/readyz", h.Health.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authenticated := []echo.MiddlewareFunc{
		jwtMiddleware(jwtService),
		actorMiddleware(authService, logger),
	}

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	// Secured routes (require JWT authentication)
	secured := api.Group("", authenticated...)
	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/logout", h.Auth.Logout)

	secured.POST("/tickets", h.Tickets.CreateTicket)
	secured.GET("/tickets", h.Tickets.ListTickets)
	secured.GET("/tickets/:id", h.Tickets.GetTicket)
	secured.PATCH("/tickets/:id", h.Tickets.UpdateTicket)

	secured.GET("/admin/stats", h.Admin.Stats)

	htmx := e.Group(htmxPrefix, authenticated...)
	htmx.POST("/chat/init", h.Chat.Init)
	htmx.POST("/chat/send", h.Chat.Send)
	htmx.POST("/chat/clear", h.Chat.Clear)

	return nil
}

func jwtMiddleware(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ClaimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			return jwtService.DecodeToken(token)
		},
		ErrorHandler: func(_ echo.Context, _ error) error {
			return unauthorized()
		},
	})
}

// actorMiddleware resolves the token subject to an active user and stores
// the resulting policy.Actor on the context.
func actorMiddleware(authService service.AuthService, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := handler.ClaimsFrom(c)
			if err != nil {
				return unauthorized()
			}
			user, err := authService.ResolveUser(c.Request().Context(), claims)
			if err != nil {
				if errors.Is(err, apperrors.ErrUnauthorized) {
					return unauthorized()
				}
				logger.Error("resolve user failed", "username", claims.Username(), "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, apperrors.MapErrorToHTTP(err).ToErrorResponse())
			}
			c.Set(handler.ActorKey, policy.ActorFor(user))
			return next(c)
		}
	}
}

func unauthorized() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.MapErrorToHTTP(apperrors.ErrUnauthorized).ToErrorResponse())
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			switch {
			case v.Status >= http.StatusInternalServerError:
				level = slog.LevelError
			case v.Status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// errorHandler renders errors as JSON under /api and as HTML fragments
// under /htmx.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		body := apperrors.MapErrorToHTTP(err).ToErrorResponse()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			switch m := he.Message.(type) {
			case apperrors.ErrorResponse:
				body = m
			case string:
				body = apperrors.ErrorResponse{Error: m, Code: statusCode(code)}
			default:
				body = apperrors.ErrorResponse{Error: fmt.Sprint(m), Code: statusCode(code)}
			}
		} else {
			logger.Error("unhandled error", "path", c.Path(), "error", err)
		}

		switch {
		case c.Request().Method == http.MethodHead:
			err = c.NoContent(code)
		case strings.HasPrefix(c.Request().URL.Path, htmxPrefix):
			msg := body.Error
			if code == http.StatusUnauthorized {
				msg = "Unauthorized"
			}
			err = c.Render(code, fragment.Notice, fragment.MessageData{Message: msg})
		default:
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}

func statusCode(code int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
