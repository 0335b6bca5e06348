// Command bootstrap-admin generates the admin API key and, optionally,
// grants the admin role to an existing account.
//
//	go run ./scripts/bootstrap-admin.go -format env
//	go run ./scripts/bootstrap-admin.go -promote owner@example.com
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/walletshop/walletshop/internal/auth"
	"github.com/walletshop/walletshop/internal/model"
	"github.com/walletshop/walletshop/internal/repository"
)

type output struct {
	Key          string `json:"key"`
	KeyPrefix    string `json:"key_prefix"`
	AdminKeyHash string `json:"admin_key_hash"`
	PromotedUser string `json:"promoted_user_id,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (needed with -promote)")
		promote     = flag.String("promote", "", "Email of an existing user to grant the admin role")
		format      = flag.String("format", "plain", "Output format: plain, env or json")
	)
	flag.Parse()

	generated, err := auth.GenerateAdminKey()
	if err != nil {
		fail("generate admin key:", err)
	}

	out := output{
		Key:          generated.Plaintext,
		KeyPrefix:    generated.Prefix,
		AdminKeyHash: generated.Hash,
	}

	if *promote != "" {
		if *databaseURL == "" {
			fail("DATABASE_URL is required with -promote")
		}
		userID, err := promoteUser(*databaseURL, *promote)
		if err != nil {
			fail(err)
		}
		out.PromotedUser = userID
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println("admin key (shown once):", out.Key)
		fmt.Println("ADMIN_KEY_HASH:", out.AdminKeyHash)
		if out.PromotedUser != "" {
			fmt.Println("promoted user:", out.PromotedUser)
		}
	case "env":
		// Single quotes keep the $ separators of the PHC string intact.
		fmt.Printf("ADMIN_KEY_HASH='%s'\n", out.AdminKeyHash)
		fmt.Fprintln(os.Stderr, "admin key (shown once):", out.Key)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fail("invalid format; use plain, env or json")
	}
}

func promoteUser(databaseURL, email string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, databaseURL)
	if err != nil {
		return "", fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()

	user, err := repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", fmt.Errorf("no user with email %s; sign in once before promoting", email)
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if user.IsAdmin() {
		return user.ID, nil
	}

	updated, err := repo.UpdateUserRole(ctx, user.ID, model.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("grant admin role: %w", err)
	}
	return updated.ID, nil
}

func fail(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}
