package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by the strict writes of a disabled client.
var ErrDisabled = errors.New("redis is not configured")

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil Client, or one built with an empty address, behaves as an always
// empty cache. The Strict variants report redis errors for callers that
// keep state rather than cached copies.
type Client struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a new Redis client. An empty addr disables Redis.
func New(addr, password string, db int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{logger: logger.With("component", "cache")}
	if addr == "" {
		return c
	}
	c.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return c
}

// Enabled reports whether a Redis server is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Ping checks connectivity. A disabled cache is always healthy.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		// fail safe: behave like cache miss
		c.logger.Warn("redis get failed", "key", key, "error", err)
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "key", key, "error", err)
		return nil
	}
	return nil
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("redis delete failed", "key", key, "error", err)
		return nil
	}
	return nil
}

// GetStrict returns value, or nil if the key is missing or Redis is
// disabled. Connectivity errors are returned.
func (c *Client) GetStrict(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return res, nil
}

// SetStrict stores value with TTL. It fails with ErrDisabled when Redis is
// not configured.
func (c *Client) SetStrict(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteStrict removes a key.
func (c *Client) DeleteStrict(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
