//go:build integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/walletshop/walletshop/internal/auth"
	"github.com/walletshop/walletshop/internal/cache"
	"github.com/walletshop/walletshop/internal/testutil"
)

func newRedisCache(t *testing.T) *cache.Cache {
	t.Helper()

	ctx := context.Background()
	c, err := cache.New(ctx, testutil.RequireEnv(t, "REDIS_URL"))
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return c
}

func TestIntegrationRateLimitIPConcurrency(t *testing.T) {
	c := newRedisCache(t)

	handler := RateLimitIP(RateLimitConfig{
		Logger:  discardLogger(),
		Limiter: c,
		Enabled: true,
		IPRPS:   1,
		IPBurst: 3,
	})(okHandler())

	var allowed, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/notifications/send", nil)
			req.RemoteAddr = "192.0.2.100:1000"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code == http.StatusOK {
				atomic.AddInt64(&allowed, 1)
			} else {
				atomic.AddInt64(&rejected, 1)
			}
		}()
	}
	wg.Wait()

	if allowed > 4 {
		t.Errorf("allowed = %d, want <= burst plus one refill", allowed)
	}
	if rejected == 0 {
		t.Error("expected some requests to be rejected")
	}
}

func TestIntegrationAdminAuthUsesRedisCache(t *testing.T) {
	c := newRedisCache(t)

	key, err := auth.GenerateAdminKey()
	if err != nil {
		t.Fatalf("GenerateAdminKey: %v", err)
	}

	handler := AdminAuth(AdminAuthConfig{
		Logger:      discardLogger(),
		Cache:       c,
		KeyHash:     key.Hash,
		MinDuration: time.Nanosecond,
	})(adminEcho())

	for i, wantHit := range []bool{false, true} {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/discounts", nil)
		req.Header.Set("Authorization", "Bearer "+key.Plaintext)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
		if got := rec.Header().Get("X-Cache-Hit") == "true"; got != wantHit {
			t.Errorf("request %d: cache hit = %v, want %v", i, got, wantHit)
		}
	}
}
