package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/walletshop/walletshop/internal/auth"
	"github.com/walletshop/walletshop/internal/model"
)

type fakeAdminCache struct {
	mu      sync.Mutex
	entries map[string]*model.AdminContext
	sets    int
	setErr  error
}

func newFakeAdminCache() *fakeAdminCache {
	return &fakeAdminCache{entries: make(map[string]*model.AdminContext)}
}

func (f *fakeAdminCache) GetAdminAuth(_ context.Context, key string) (*model.AdminContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	admin, ok := f.entries[key]
	if !ok {
		return nil, nil
	}
	return &model.AdminContext{KeyPrefix: admin.KeyPrefix, CacheHit: true}, nil
}

func (f *fakeAdminCache) SetAdminAuth(_ context.Context, key string, admin *model.AdminContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = admin
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustAdminKey(t *testing.T) *auth.GeneratedKey {
	t.Helper()
	key, err := auth.GenerateAdminKey()
	if err != nil {
		t.Fatalf("GenerateAdminKey: %v", err)
	}
	return key
}

// adminEcho reports the admin context the handler saw.
func adminEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin := auth.AdminFromContext(r.Context())
		if admin == nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		if admin.CacheHit {
			w.Header().Set("X-Cache-Hit", "true")
		}
		_, _ = w.Write([]byte(admin.KeyPrefix))
	})
}

func TestAdminAuth(t *testing.T) {
	t.Parallel()

	key := mustAdminKey(t)
	other := mustAdminKey(t)

	tests := []struct {
		name       string
		keyHash    string
		header     string
		wantStatus int
	}{
		{"valid key", key.Hash, "Bearer " + key.Plaintext, http.StatusOK},
		{"missing header", key.Hash, "", http.StatusUnauthorized},
		{"basic scheme", key.Hash, "Basic " + key.Plaintext, http.StatusUnauthorized},
		{"malformed key", key.Hash, "Bearer not-a-key", http.StatusUnauthorized},
		{"wrong key", key.Hash, "Bearer " + other.Plaintext, http.StatusUnauthorized},
		{"no hash configured", "", "Bearer " + key.Plaintext, http.StatusUnauthorized},
		{"corrupt hash", "$argon2id$broken", "Bearer " + key.Plaintext, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := AdminAuth(AdminAuthConfig{
				Logger:      discardLogger(),
				Cache:       newFakeAdminCache(),
				KeyHash:     tt.keyHash,
				MinDuration: time.Nanosecond,
			})(adminEcho())

			req := httptest.NewRequest(http.MethodPost, "/api/admin/discounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != key.Prefix {
				t.Errorf("key prefix = %q, want %q", rec.Body.String(), key.Prefix)
			}
			if tt.wantStatus == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"code":"UNAUTHORIZED"`) {
				t.Errorf("unexpected error body: %s", rec.Body.String())
			}
		})
	}
}

func TestAdminAuth_CachesVerification(t *testing.T) {
	t.Parallel()

	key := mustAdminKey(t)
	cache := newFakeAdminCache()
	handler := AdminAuth(AdminAuthConfig{
		Logger:      discardLogger(),
		Cache:       cache,
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

	if cache.sets != 1 {
		t.Errorf("SetAdminAuth calls = %d, want 1", cache.sets)
	}
}

func TestAdminAuth_CacheKeyTracksHash(t *testing.T) {
	t.Parallel()

	key := mustAdminKey(t)
	rotated := mustAdminKey(t)
	cache := newFakeAdminCache()

	serve := func(hash string) int {
		handler := AdminAuth(AdminAuthConfig{
			Logger:      discardLogger(),
			Cache:       cache,
			KeyHash:     hash,
			MinDuration: time.Nanosecond,
		})(adminEcho())
		req := httptest.NewRequest(http.MethodPatch, "/api/admin/users/x/role", nil)
		req.Header.Set("Authorization", "Bearer "+key.Plaintext)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := serve(key.Hash); code != http.StatusOK {
		t.Fatalf("original hash: status = %d", code)
	}
	if code := serve(rotated.Hash); code != http.StatusUnauthorized {
		t.Errorf("after rotation: status = %d, want 401", code)
	}
}

func TestAdminAuth_CacheWriteFailureStillAuthenticates(t *testing.T) {
	t.Parallel()

	key := mustAdminKey(t)
	cache := newFakeAdminCache()
	cache.setErr = errors.New("redis down")

	var buf bytes.Buffer
	handler := AdminAuth(AdminAuthConfig{
		Logger:      slog.New(slog.NewJSONHandler(&buf, nil)),
		Cache:       cache,
		KeyHash:     key.Hash,
		MinDuration: time.Nanosecond,
	})(adminEcho())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/discounts", nil)
	req.Header.Set("Authorization", "Bearer "+key.Plaintext)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(buf.String(), key.Plaintext) {
		t.Error("admin key leaked into logs")
	}
}

func TestAdminAuth_MinimumDuration(t *testing.T) {
	t.Parallel()

	key := mustAdminKey(t)
	handler := AdminAuth(AdminAuthConfig{
		Logger:      discardLogger(),
		KeyHash:     key.Hash,
		MinDuration: 50 * time.Millisecond,
	})(adminEcho())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/discounts", nil)
	rec := httptest.NewRecorder()

	start := time.Now()
	handler.ServeHTTP(rec, req)

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("failed auth returned after %v, want >= 50ms", elapsed)
	}
}
