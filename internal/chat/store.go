package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"helphub/internal/cache"
	"helphub/internal/model"
)

// SessionStore persists chat logs keyed by user id.
type SessionStore interface {
	Get(ctx context.Context, userID uint) ([]model.Message, bool, error)
	Put(ctx context.Context, userID uint, log []model.Message) error
	Delete(ctx context.Context, userID uint) error
}

// MemoryStore keeps sessions in process memory. Sessions vanish on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uint][]model.Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uint][]model.Message)}
}

func (s *MemoryStore) Get(_ context.Context, userID uint) ([]model.Message, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.sessions[userID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.Message(nil), log...), true, nil
}

func (s *MemoryStore) Put(_ context.Context, userID uint, log []model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = append([]model.Message(nil), log...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

const sessionKeyPrefix = "chat_session:"

// RedisStore keeps sessions in Redis as JSON with a sliding TTL, so
// sessions survive restarts and are shared between replicas. Redis errors
// are returned rather than read as a missing session.
type RedisStore struct {
	cache *cache.Client
	ttl   time.Duration
}

// NewRedisStore creates a store over c. Sessions expire ttl after their
// last write.
func NewRedisStore(c *cache.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func sessionKey(userID uint) string {
	return sessionKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

func (s *RedisStore) Get(ctx context.Context, userID uint) ([]model.Message, bool, error) {
	data, err := s.cache.GetStrict(ctx, sessionKey(userID))
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}
	var log []model.Message
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, false, fmt.Errorf("decode chat session %d: %w", userID, err)
	}
	return log, true, nil
}

func (s *RedisStore) Put(ctx context.Context, userID uint, log []model.Message) error {
	payload, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode chat session %d: %w", userID, err)
	}
	return s.cache.SetStrict(ctx, sessionKey(userID), payload, s.ttl)
}

func (s *RedisStore) Delete(ctx context.Context, userID uint) error {
	return s.cache.DeleteStrict(ctx, sessionKey(userID))
}
