package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"helphub/internal/auth"
	"helphub/internal/model"
	"helphub/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: componentLogger(logger, "auth_handler")}
}

// RegisterRequest represents a user registration request. A requested role
// is accepted for compatibility and ignored.
type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Email    string  `json:"email" validate:"required,email,max=100"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Role     string  `json:"role,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse represents an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       uint       `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	FullName *string    `json:"full_name"`
	IsActive bool       `json:"is_active"`
	Role     model.Role `json:"role"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		IsActive: u.IsActive,
		Role:     u.Role,
	}
}

// Register godoc
// @Summary Register a new user
// @Description Always creates a regular user; any requested role is ignored.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return fail(c, h.logger, err, "username", req.Username)
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return fail(c, h.logger, err, "username", req.Username)
	}
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: auth.TokenType})
}

// Me godoc
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := ClaimsFrom(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	user, err := h.authService.ResolveUser(c.Request().Context(), claims)
	if err != nil {
		return fail(c, h.logger, err, "username", claims.Username())
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Logout godoc
// @Summary Logout user
// @Description Revokes the presented access token until it expires.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ClaimsFrom(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	if err := h.authService.Logout(c.Request().Context(), claims); err != nil {
		return fail(c, h.logger, err, "username", claims.Username())
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}
