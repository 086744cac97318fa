package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"helphub/internal/metrics"
	"helphub/internal/model"
	"helphub/internal/repository"
)

const userCacheSize = 1024

// UserService resolves users by username with a short-lived in-process
// cache in front of the repository. Every authenticated request goes
// through it.
type UserService interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Invalidate(username string)
	Count(ctx context.Context) (int64, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *expirable.LRU[string, model.User]
}

// NewUserService builds a UserService. A non-positive ttl disables caching.
func NewUserService(repo repository.UserRepository, ttl time.Duration) UserService {
	s := &userService{repo: repo}
	if ttl > 0 {
		s.cache = expirable.NewLRU[string, model.User](userCacheSize, nil, ttl)
	}
	return s
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(username); ok {
			metrics.UserCacheHits.Inc()
			return &cached, nil
		}
		metrics.UserCacheMisses.Inc()
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(username, *user)
	}
	return user, nil
}

func (s *userService) Invalidate(username string) {
	if s.cache != nil {
		s.cache.Remove(username)
	}
}

func (s *userService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
