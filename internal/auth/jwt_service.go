package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of an access token unless configured.
const DefaultTokenTTL = 30 * time.Minute

// TokenType is returned to clients alongside the access token.
const TokenType = "bearer"

// ErrorKind classifies why a token was rejected.
type ErrorKind int

const (
	Malformed ErrorKind = iota
	Expired
	BadSignature
	NoSubject
)

func (k ErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case Expired:
		return "expired"
	case BadSignature:
		return "bad signature"
	case NoSubject:
		return "no subject"
	default:
		return "unknown"
	}
}

// AuthError is returned by DecodeToken for every rejected token.
type AuthError struct {
	Kind ErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
	}
	return "token " + e.Kind.String()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Claims represents JWT claims. The subject carries the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Username returns the subject claim.
func (c *Claims) Username() string {
	return c.Subject
}

// TTL returns the time left before the token expires.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// IssueToken signs a token for username that expires after ttl.
func (s *JWTService) IssueToken(username string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// DecodeToken verifies the signature and expiry of tokenString and returns
// its claims. Every failure is an *AuthError.
func (s *JWTService) DecodeToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if claims.ExpiresAt == nil {
		return nil, &AuthError{Kind: Malformed, Err: errors.New("token has no exp claim")}
	}
	// jwt/v4 validates exp against the wall clock; re-check against the
	// service clock so an injected clock governs expiry too.
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, &AuthError{Kind: Expired}
	}
	if claims.Subject == "" {
		return nil, &AuthError{Kind: NoSubject}
	}
	return claims, nil
}

func classify(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &AuthError{Kind: Expired, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &AuthError{Kind: BadSignature, Err: err}
	default:
		return &AuthError{Kind: Malformed, Err: err}
	}
}
