package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/walletshop/walletshop/internal/auth"
	"github.com/walletshop/walletshop/internal/cache"
	"github.com/walletshop/walletshop/internal/model"
)

// fakeLimiter allows the first `budget` calls per key.
type fakeLimiter struct {
	budget int
	err    error
	seen   map[string]int
}

func newFakeLimiter(budget int) *fakeLimiter {
	return &fakeLimiter{budget: budget, seen: make(map[string]int)}
}

func (f *fakeLimiter) check(key string) (*cache.RateLimitResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.seen[key]++
	remaining := f.budget - f.seen[key]
	if remaining < 0 {
		return &cache.RateLimitResult{RetryAfter: 3 * time.Second, ResetAt: time.Now().Add(3 * time.Second)}, nil
	}
	return &cache.RateLimitResult{Allowed: true, Remaining: int64(remaining), ResetAt: time.Now().Add(time.Second)}, nil
}

func (f *fakeLimiter) CheckIPRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	return f.check("ip:" + ip)
}

func (f *fakeLimiter) CheckAdminRateLimit(_ context.Context, prefix string, _, _ int) (*cache.RateLimitResult, error) {
	return f.check("admin:" + prefix)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitIP(t *testing.T) {
	t.Parallel()

	limiter := newFakeLimiter(2)
	handler := RateLimitIP(RateLimitConfig{
		Logger:  discardLogger(),
		Limiter: limiter,
		Enabled: true,
		IPRPS:   1,
		IPBurst: 2,
	})(okHandler())

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i, status := range want {
		req := httptest.NewRequest(http.MethodPost, "/api/notifications/send", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != status {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, status)
		}
		if status == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "3" {
			t.Errorf("Retry-After = %q, want 3", rec.Header().Get("Retry-After"))
		}
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/send", nil)
	req.RemoteAddr = "198.51.100.1:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("second client: status = %d, want 200", rec.Code)
	}
}

func TestRateLimitIP_DisabledAndFailOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		enabled bool
		limiter *fakeLimiter
	}{
		{"disabled", false, newFakeLimiter(0)},
		{"limiter error", true, &fakeLimiter{err: errors.New("redis down"), seen: map[string]int{}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := RateLimitIP(RateLimitConfig{
				Logger:  discardLogger(),
				Limiter: tt.limiter,
				Enabled: tt.enabled,
			})(okHandler())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-email", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}
}

func TestRateLimitAdmin(t *testing.T) {
	t.Parallel()

	limiter := newFakeLimiter(1)
	handler := RateLimitAdmin(RateLimitConfig{
		Logger:  discardLogger(),
		Limiter: limiter,
		Enabled: true,
	})(okHandler())

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/discounts", nil)
		ctx := auth.ContextWithAdmin(req.Context(), &model.AdminContext{KeyPrefix: "abc123"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec
	}

	first := serve()
	if first.Code != http.StatusOK {
		t.Fatalf("first: status = %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("X-RateLimit-Limit not set")
	}
	if second := serve(); second.Code != http.StatusTooManyRequests {
		t.Errorf("second: status = %d, want 429", second.Code)
	}
	if limiter.seen["admin:abc123"] != 2 {
		t.Errorf("limiter calls = %d, want 2", limiter.seen["admin:abc123"])
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"forwarded chain", "203.0.113.7, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", "", " 198.51.100.9 ", "10.0.0.2:1234", "198.51.100.9"},
		{"remote addr strips port", "", "", "192.0.2.5:4321", "192.0.2.5"},
		{"remote addr without port", "", "", "192.0.2.5", "192.0.2.5"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
