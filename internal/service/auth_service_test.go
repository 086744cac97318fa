package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"helphub/internal/auth"
	apperrors "helphub/internal/errors"
	"helphub/internal/model"
)

func newAuthService(repo *MockUserRepository, store *MockTokenStore) (AuthService, *auth.JWTService) {
	jwtService := auth.NewJWTService("test-secret")
	users := NewUserService(repo, 0)
	return NewAuthService(repo, users, jwtService, store, time.Minute, nil), jwtService
}

func TestAuthService_Register(t *testing.T) {
	fullName := "Alice Example"

	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:  "successful registration",
			input: RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password123", FullName: &fullName},
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil)
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.Role == model.RoleUser && u.IsActive && u.HashedPassword != "password123"
				})).Return(nil)
			},
		},
		{
			name:  "username or email taken",
			input: RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(true, nil)
			},
			expectedError: apperrors.ErrUserAlreadyExists,
		},
		{
			name:          "password longer than bcrypt accepts",
			input:         RegisterInput{Username: "alice", Email: "alice@example.com", Password: strings.Repeat("é", 40)},
			setupMock:     func(*MockUserRepository) {},
			expectedError: apperrors.NewValidationError("password", "must be at most 72 bytes"),
		},
		{
			name:  "storage failure",
			input: RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, errors.New("db down"))
			},
			expectedError: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)
			svc, _ := newAuthService(mockRepo, new(MockTokenStore))

			user, err := svc.Register(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.input.Username, user.Username)
				assert.Equal(t, model.RoleUser, user.Role)
				assert.True(t, auth.VerifyPassword(tt.input.Password, user.HashedPassword))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			username: "alice",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: 7, Username: "alice", HashedPassword: hash, IsActive: true}, nil)
			},
		},
		{
			name:     "unknown user",
			username: "nobody",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "nobody").Return(nil, apperrors.ErrUserNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "alice",
			password: "wrong",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{Username: "alice", HashedPassword: hash, IsActive: true}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "inactive user",
			username: "alice",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{Username: "alice", HashedPassword: hash, IsActive: false}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)
			svc, jwtService := newAuthService(mockRepo, new(MockTokenStore))

			token, err := svc.Login(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				claims, err := jwtService.DecodeToken(token)
				require.NoError(t, err)
				assert.Equal(t, tt.username, claims.Username())
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockStore := new(MockTokenStore)
	svc, jwtService := newAuthService(mockRepo, mockStore)

	token, err := jwtService.IssueToken("alice", time.Minute)
	require.NoError(t, err)
	claims, err := jwtService.DecodeToken(token)
	require.NoError(t, err)

	mockStore.On("Revoke", mock.Anything, claims.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= time.Minute
	})).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), claims))
	mockStore.AssertExpectations(t)
}

func TestAuthService_ResolveUser(t *testing.T) {
	claims := &auth.Claims{}
	claims.Subject = "alice"
	claims.ID = "jti-1"

	tests := []struct {
		name          string
		setupMock     func(*MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name: "active user",
			setupMock: func(r *MockUserRepository, s *MockTokenStore) {
				s.On("IsRevoked", mock.Anything, "jti-1").Return(false, nil)
				r.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: 3, Username: "alice", IsActive: true}, nil)
			},
		},
		{
			name: "revoked token",
			setupMock: func(r *MockUserRepository, s *MockTokenStore) {
				s.On("IsRevoked", mock.Anything, "jti-1").Return(true, nil)
			},
			expectedError: apperrors.ErrUnauthorized,
		},
		{
			name: "deleted user",
			setupMock: func(r *MockUserRepository, s *MockTokenStore) {
				s.On("IsRevoked", mock.Anything, "jti-1").Return(false, nil)
				r.On("FindByUsername", mock.Anything, "alice").Return(nil, apperrors.ErrUserNotFound)
			},
			expectedError: apperrors.ErrUnauthorized,
		},
		{
			name: "deactivated user",
			setupMock: func(r *MockUserRepository, s *MockTokenStore) {
				s.On("IsRevoked", mock.Anything, "jti-1").Return(false, nil)
				r.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: 3, Username: "alice", IsActive: false}, nil)
			},
			expectedError: apperrors.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockStore := new(MockTokenStore)
			tt.setupMock(mockRepo, mockStore)
			svc, _ := newAuthService(mockRepo, mockStore)

			user, err := svc.ResolveUser(context.Background(), claims)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, uint(3), user.ID)
			}
			mockRepo.AssertExpectations(t)
			mockStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_EnsureBootstrapAdmin(t *testing.T) {
	t.Run("creates admin when none exists", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("HasAdmin", mock.Anything).Return(false, nil)
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Username == "admin" && u.Email == "admin@system.com" &&
				u.Role == model.RoleAdmin && auth.VerifyPassword("admin123", u.HashedPassword)
		})).Return(nil)
		svc, _ := newAuthService(mockRepo, new(MockTokenStore))

		created, err := svc.EnsureBootstrapAdmin(context.Background(), "admin123")
		require.NoError(t, err)
		assert.True(t, created)
		mockRepo.AssertExpectations(t)
	})

	t.Run("leaves existing admin alone", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("HasAdmin", mock.Anything).Return(true, nil)
		svc, _ := newAuthService(mockRepo, new(MockTokenStore))

		created, err := svc.EnsureBootstrapAdmin(context.Background(), "admin123")
		require.NoError(t, err)
		assert.False(t, created)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUserService_CachesLookups(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: 3, Username: "alice"}, nil).Once()
	users := NewUserService(mockRepo, time.Minute)

	for i := 0; i < 3; i++ {
		u, err := users.GetByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, uint(3), u.ID)
	}
	mockRepo.AssertNumberOfCalls(t, "FindByUsername", 1)

	users.Invalidate("alice")
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: 3, Username: "alice"}, nil).Once()
	_, err := users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "FindByUsername", 2)
}
