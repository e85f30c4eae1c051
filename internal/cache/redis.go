// Package cache owns the process-wide Redis connection used for rate-limit
// counters and the translation cache. Redis is optional: a Client built
// from an empty URL is disabled and every call returns ErrDisabled, which
// callers treat as "degrade, don't fail".
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/review-pipeline/internal/config"
	"github.com/rs/zerolog"
)

// ErrDisabled is returned by every operation on a disabled client
var ErrDisabled = errors.New("cache: redis not configured")

// Client wraps a go-redis client. The connection is dialed lazily on
// first use and released by Close.
type Client struct {
	rdb       *redis.Client
	opTimeout time.Duration
	log       zerolog.Logger
}

// New creates a Redis client from configuration. An empty URL yields a
// disabled client and no error.
func New(cfg config.RedisConfig, log zerolog.Logger) (*Client, error) {
	c := &Client{
		opTimeout: cfg.OpTimeout,
		log:       log.With().Str("component", "redis").Logger(),
	}

	if cfg.URL == "" {
		c.log.Warn().Msg("REDIS_URL not configured, rate limiting and translation cache disabled")
		return c, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}

	c.rdb = redis.NewClient(opt)
	return c, nil
}

// NewFromClient wraps an existing go-redis client
func NewFromClient(rdb *redis.Client, opTimeout time.Duration, log zerolog.Logger) *Client {
	return &Client{rdb: rdb, opTimeout: opTimeout, log: log}
}

// Enabled reports whether a Redis URL was configured
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Ping checks connectivity; used at startup for visibility only
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// Incr atomically increments key and returns the new value
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	if !c.Enabled() {
		return 0, ErrDisabled
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Incr(ctx, key).Result()
}

// Expire sets a time-to-live on key
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Expire(ctx, key, ttl).Err()
}

// TTL returns the remaining time-to-live of key. Redis reports -1 for a
// key without expiry and -2 for a missing key; both come back negative.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	if !c.Enabled() {
		return 0, ErrDisabled
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.TTL(ctx, key).Result()
}

// Get returns the value at key; a miss is ("", false, nil)
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	if !c.Enabled() {
		return "", false, ErrDisabled
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// SetEx stores value at key with a time-to-live
func (c *Client) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opTimeout)
}
