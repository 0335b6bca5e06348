package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/walletshop/walletshop/internal/auth"
	"github.com/walletshop/walletshop/internal/model"
)

const (
	// minAuthDuration is the minimum time to spend on auth to prevent timing attacks.
	minAuthDuration = 200 * time.Millisecond
)

// AdminAuthCache stores successful admin key verifications.
type AdminAuthCache interface {
	GetAdminAuth(ctx context.Context, cacheKey string) (*model.AdminContext, error)
	SetAdminAuth(ctx context.Context, cacheKey string, admin *model.AdminContext) error
}

// AdminAuthConfig holds configuration for the admin auth middleware.
type AdminAuthConfig struct {
	Logger *slog.Logger
	Cache  AdminAuthCache
	// KeyHash is the argon2id PHC string of the admin key. Empty disables
	// every admin route.
	KeyHash string
	// MinDuration overrides minAuthDuration. Zero uses the default.
	MinDuration time.Duration
}

// AdminAuth returns a middleware that authenticates admin requests.
// The key is read from "Authorization: Bearer <key>", verified against
// the configured argon2id hash, and the result cached in Redis.
func AdminAuth(cfg AdminAuthConfig) func(http.Handler) http.Handler {
	minDuration := cfg.MinDuration
	if minDuration <= 0 {
		minDuration = minAuthDuration
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			ctx := r.Context()

			fail := func(reason string) {
				cfg.Logger.Warn("admin authentication failed",
					slog.String("reason", reason),
					slog.String("ip", getClientIP(r)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(ctx)),
				)
				if elapsed := time.Since(startTime); elapsed < minDuration {
					time.Sleep(minDuration - elapsed)
				}
				writeAuthError(w)
			}

			if cfg.KeyHash == "" {
				fail("not_configured")
				return
			}

			key := extractBearerKey(r)
			if key == "" {
				fail("missing_key")
				return
			}

			prefix, err := auth.ParseKeyPrefix(key)
			if err != nil {
				fail("invalid_format")
				return
			}

			// The hash is part of the cache key so rotating ADMIN_KEY_HASH
			// invalidates earlier verifications.
			cacheKey := auth.QuickHash(cfg.KeyHash + ":" + key)
			if cfg.Cache != nil {
				if admin, _ := cfg.Cache.GetAdminAuth(ctx, cacheKey); admin != nil {
					cfg.Logger.Info("admin authentication successful",
						slog.String("key_prefix", admin.KeyPrefix),
						slog.Bool("cache_hit", true),
						slog.String("request_id", GetRequestID(ctx)),
					)
					next.ServeHTTP(w, r.WithContext(auth.ContextWithAdmin(ctx, admin)))
					return
				}
			}

			match, err := auth.VerifyKey(key, cfg.KeyHash)
			if err != nil {
				cfg.Logger.Error("admin key hash is invalid",
					slog.String("error", err.Error()),
				)
				fail("invalid_hash")
				return
			}
			if !match {
				fail("invalid_key")
				return
			}

			admin := &model.AdminContext{KeyPrefix: prefix}
			if cfg.Cache != nil {
				if err := cfg.Cache.SetAdminAuth(ctx, cacheKey, admin); err != nil {
					cfg.Logger.Warn("failed to cache admin auth",
						slog.String("error", err.Error()),
					)
				}
			}

			cfg.Logger.Info("admin authentication successful",
				slog.String("key_prefix", prefix),
				slog.Bool("cache_hit", false),
				slog.String("request_id", GetRequestID(ctx)),
			)

			next.ServeHTTP(w, r.WithContext(auth.ContextWithAdmin(ctx, admin)))
		})
	}
}

// extractBearerKey extracts the key from the Authorization header.
func extractBearerKey(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"invalid or missing admin key","code":"UNAUTHORIZED"}`))
}
