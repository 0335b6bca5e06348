// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/walletshop/walletshop/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 730730

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates one migration's tables, e.g. "000002_discounts".
func ResetSchema(ctx context.Context, pool *pgxpool.Pool, migration string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}
	dir := filepath.Join(root, "internal", "database", "migrations")

	for _, suffix := range []string{".down.sql", ".up.sql"} {
		sql, err := os.ReadFile(filepath.Join(dir, migration+suffix))
		if err != nil {
			return fmt.Errorf("read %s%s: %w", migration, suffix, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s%s: %w", migration, suffix, err)
		}
	}
	return nil
}

// ResetUsersSchema drops and recreates the users table.
func ResetUsersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return ResetSchema(ctx, pool, "000001_users")
}

// ResetDiscountsSchema drops and recreates the discounts table.
func ResetDiscountsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return ResetSchema(ctx, pool, "000002_discounts")
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, prefix string) *model.User {
	t.Helper()
	uid := UniqueID(prefix)
	return &model.User{
		FirebaseUID: uid,
		Email:       uid + "@example.com",
		Username:    prefix,
		Role:        model.RoleUser,
	}
}

// NewTestDiscount creates a discount for productID valid from start to end.
func NewTestDiscount(t testing.TB, productID, percentage string, start, end time.Time) *model.Discount {
	t.Helper()
	return &model.Discount{
		ID:                 ulid.Make().String(),
		ProductID:          productID,
		DiscountPercentage: decimal.RequireFromString(percentage),
		StartDate:          start.UTC(),
		EndDate:            end.UTC(),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
