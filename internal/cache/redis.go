// Package cache holds the Redis-backed stores: discount candidates, admin
// key verifications and rate limit buckets.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options tunes the Redis client pool. Zero values keep the defaults.
type Options struct {
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultOptions returns the pool settings used by the API server.
func DefaultOptions() Options {
	return Options{
		PoolSize:        10,
		MinIdleConns:    2,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Cache wraps a Redis client.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL with the default pool settings.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	return NewWithOptions(ctx, redisURL, DefaultOptions())
}

// NewWithOptions connects to redisURL and verifies the connection.
func NewWithOptions(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if opts.PoolSize > 0 {
		opt.PoolSize = opts.PoolSize
	}
	if opts.MinIdleConns > 0 {
		opt.MinIdleConns = opts.MinIdleConns
	}
	if opts.PoolTimeout > 0 {
		opt.PoolTimeout = opts.PoolTimeout
	}
	if opts.ConnMaxIdleTime > 0 {
		opt.ConnMaxIdleTime = opts.ConnMaxIdleTime
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying client, shared with the notification audit stream.
func (c *Cache) Client() *redis.Client {
	return c.client
}
