package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walletshop/walletshop/internal/model"
)

// Cache key prefixes and TTLs.
const (
	discountKeyPrefix = "discounts:product:"

	// DefaultDiscountTTL is the upper bound for cached candidate sets.
	DefaultDiscountTTL = 10 * time.Minute

	// EmptyDiscountTTL is the TTL for products with no live candidates.
	EmptyDiscountTTL = time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetDiscounts returns the cached candidate discounts for productID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetDiscounts(ctx context.Context, productID string) ([]model.Discount, error) {
	data, err := c.client.Get(ctx, discountKeyPrefix+productID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var discounts []model.Discount
	if err := json.Unmarshal(data, &discounts); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, ErrCacheMiss
	}
	return discounts, nil
}

// SetDiscounts caches the candidate set for productID.
// The TTL never outlives the latest end date in the set.
func (c *Cache) SetDiscounts(ctx context.Context, productID string, discounts []model.Discount, maxTTL time.Duration) error {
	key := discountKeyPrefix + productID

	ttl := DiscountTTL(discounts, time.Now(), maxTTL)
	if ttl <= 0 {
		return c.client.Del(ctx, key).Err()
	}

	data, err := json.Marshal(discounts)
	if err != nil {
		return fmt.Errorf("marshal discounts: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache discounts: %w", err)
	}
	return nil
}

// DeleteDiscounts invalidates the candidate set for productID.
func (c *Cache) DeleteDiscounts(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, discountKeyPrefix+productID).Err(); err != nil {
		return fmt.Errorf("failed to delete discounts from cache: %w", err)
	}
	return nil
}

// DiscountTTL returns how long a candidate set may be cached at now.
// Empty sets get EmptyDiscountTTL. A set whose discounts have all ended returns 0.
func DiscountTTL(discounts []model.Discount, now time.Time, maxTTL time.Duration) time.Duration {
	if maxTTL <= 0 {
		maxTTL = DefaultDiscountTTL
	}
	if len(discounts) == 0 {
		return min(EmptyDiscountTTL, maxTTL)
	}

	var latest time.Time
	for _, d := range discounts {
		if d.EndDate.After(latest) {
			latest = d.EndDate
		}
	}

	until := latest.Sub(now)
	if until <= 0 {
		return 0
	}
	return min(until, maxTTL)
}
