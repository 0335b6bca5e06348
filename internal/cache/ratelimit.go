package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitAdminPrefix = "ratelimit:admin:"
	rateLimitIPPrefix    = "ratelimit:ip:"
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int64
	// ResetAt is when the bucket is full again.
	ResetAt    time.Time
	RetryAfter time.Duration
}

// bucket describes one token bucket stored under key.
type bucket struct {
	key   string
	rate  float64 // tokens per second
	burst int
}

// ttl keeps an idle bucket around until it would have refilled.
func (b bucket) ttl() time.Duration {
	refill := time.Duration(float64(b.burst) / b.rate * float64(time.Second))
	return max(refill, time.Second) + time.Second
}

// tokenBucketScript refills and consumes one token atomically.
// Time is passed in milliseconds so sub-second rates refill smoothly.
//
// Returns {allowed, retry_after_ms, remaining_tokens, ms_until_full}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1]) / 1000
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'ts')
	local tokens = tonumber(data[1]) or burst
	local ts = tonumber(data[2]) or now

	tokens = math.min(burst, tokens + math.max(0, now - ts) * rate)

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'ts', now)
	redis.call('PEXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens), math.ceil((burst - tokens) / rate)}
`)

// CheckAdminRateLimit consumes a token from the bucket of an admin key prefix.
// A zero rate disables the limit.
func (c *Cache) CheckAdminRateLimit(ctx context.Context, keyPrefix string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute <= 0 {
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(burst),
			ResetAt:   time.Now(),
		}, nil
	}
	return c.take(ctx, bucket{
		key:   rateLimitAdminPrefix + keyPrefix,
		rate:  float64(ratePerMinute) / 60,
		burst: burst,
	})
}

// CheckIPRateLimit consumes a token from the bucket of a client IP.
// The IP is hashed so raw addresses never reach Redis.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	if ratePerSecond <= 0 {
		return nil, fmt.Errorf("invalid IP rate %d", ratePerSecond)
	}
	return c.take(ctx, bucket{
		key:   rateLimitIPPrefix + hashIP(ip),
		rate:  float64(ratePerSecond),
		burst: burst,
	})
}

// take runs the bucket script. Redis failures are returned so the caller
// decides whether to fail open.
func (c *Cache) take(ctx context.Context, b bucket) (*RateLimitResult, error) {
	now := time.Now()

	res, err := tokenBucketScript.Run(ctx, c.client,
		[]string{b.key},
		b.rate, b.burst, now.UnixMilli(), b.ttl().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", b.key, err)
	}
	if len(res) != 4 {
		return nil, fmt.Errorf("rate limit %s: unexpected script result %v", b.key, res)
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		Remaining:  res[2],
		ResetAt:    now.Add(time.Duration(res[3]) * time.Millisecond),
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
	}, nil
}

// hashIP returns the first 16 hex chars of the SHA-256 of ip.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
