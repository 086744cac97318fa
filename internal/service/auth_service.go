package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"helphub/internal/auth"
	apperrors "helphub/internal/errors"
	"helphub/internal/model"
	"helphub/internal/repository"
)

const (
	// BootstrapAdminUsername is the account created when no admin exists.
	BootstrapAdminUsername = "admin"
	bootstrapAdminEmail    = "admin@system.com"
	bootstrapAdminFullName = "System Admin"
)

// RegisterInput carries the fields accepted at registration. There is no
// role: registration always creates a regular user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName *string
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken string, err error)
	Logout(ctx context.Context, claims *auth.Claims) error
	ResolveUser(ctx context.Context, claims *auth.Claims) (*model.User, error)
	EnsureBootstrapAdmin(ctx context.Context, password string) (bool, error)
}

type authService struct {
	userRepo   repository.UserRepository
	users      UserService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	tokenTTL   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	users UserService,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	tokenTTL time.Duration,
	logger *slog.Logger,
) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		userRepo:   userRepo,
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		tokenTTL:   tokenTTL,
		logger:     logger.With("component", "auth"),
		now:        time.Now,
	}
}

// Register creates a new user with hashed password and role user.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperrors.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes))
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrUserAlreadyExists
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:       in.Username,
		Email:          in.Email,
		FullName:       in.FullName,
		HashedPassword: hashed,
		Role:           model.RoleUser,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login checks credentials and issues an access token.
func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return "", apperrors.ErrInvalidCredentials
		}
		return "", err
	}

	if !auth.VerifyPassword(password, user.HashedPassword) || !user.IsActive {
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.IssueToken(user.Username, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.tokenStore.Revoke(ctx, claims.ID, claims.TTL(s.now())); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.users.Invalidate(claims.Username())
	return nil
}

// ResolveUser maps decoded claims onto the stored, active user.
func (s *authService) ResolveUser(ctx context.Context, claims *auth.Claims) (*model.User, error) {
	revoked, err := s.tokenStore.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.users.GetByUsername(ctx, claims.Username())
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

// EnsureBootstrapAdmin creates the admin account once, when no admin user
// exists yet. It reports whether an account was created.
func (s *authService) EnsureBootstrapAdmin(ctx context.Context, password string) (bool, error) {
	hasAdmin, err := s.userRepo.HasAdmin(ctx)
	if err != nil {
		return false, err
	}
	if hasAdmin {
		return false, nil
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	fullName := bootstrapAdminFullName
	admin := &model.User{
		Username:       BootstrapAdminUsername,
		Email:          bootstrapAdminEmail,
		FullName:       &fullName,
		HashedPassword: hashed,
		Role:           model.RoleAdmin,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}

	s.logger.Warn("bootstrap admin created, rotate its password", "username", admin.Username)
	return true, nil
}
