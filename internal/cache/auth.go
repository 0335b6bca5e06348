package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/walletshop/walletshop/internal/model"
)

const (
	// adminAuthPrefix is the Redis key prefix for verified admin keys.
	adminAuthPrefix = "auth:admin:"
	// adminAuthTTL is the time-to-live for cached verifications.
	adminAuthTTL = 5 * time.Minute
)

// CachedAdminAuth represents a verified admin key stored in Redis.
type CachedAdminAuth struct {
	KeyPrefix string `json:"key_prefix"`
}

// GetAdminAuth retrieves a cached admin verification by cache key.
// Returns nil if not found (cache miss).
func (c *Cache) GetAdminAuth(ctx context.Context, cacheKey string) (*model.AdminContext, error) {
	data, err := c.client.Get(ctx, adminAuthPrefix+cacheKey).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedAdminAuth
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AdminContext{KeyPrefix: cached.KeyPrefix, CacheHit: true}, nil
}

// SetAdminAuth caches a successful admin verification.
func (c *Cache) SetAdminAuth(ctx context.Context, cacheKey string, admin *model.AdminContext) error {
	data, err := json.Marshal(CachedAdminAuth{KeyPrefix: admin.KeyPrefix})
	if err != nil {
		return fmt.Errorf("marshal admin auth: %w", err)
	}
	return c.client.Set(ctx, adminAuthPrefix+cacheKey, data, adminAuthTTL).Err()
}

// DeleteAdminAuth removes a cached verification.
// Used when the admin key is rotated.
func (c *Cache) DeleteAdminAuth(ctx context.Context, cacheKey string) error {
	return c.client.Del(ctx, adminAuthPrefix+cacheKey).Err()
}
