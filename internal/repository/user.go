package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/walletshop/walletshop/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrFirebaseUIDExists = errors.New("firebase uid already exists")
)

const userColumns = `id::text, firebase_uid, email, username, role, created_at`

// CreateUser inserts a new user. ID, Role and CreatedAt are filled from the row.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (firebase_uid, email, username, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	err := scanUser(r.pool.QueryRow(ctx, query,
		user.FirebaseUID,
		user.Email,
		user.Username,
		user.EffectiveRole(),
	), user)

	if err != nil {
		if constraint, ok := uniqueViolationOn(err); ok {
			if constraint == "users_firebase_uid_key" {
				return ErrFirebaseUIDExists
			}
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, "id::text = $1", id)
}

// GetUserByFirebaseUID retrieves a user by their identity provider id.
func (r *Repository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*model.User, error) {
	return r.getUser(ctx, "firebase_uid = $1", firebaseUID)
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, "email = $1", email)
}

func (r *Repository) getUser(ctx context.Context, where string, arg string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var user model.User
	if err := scanUser(r.pool.QueryRow(ctx, query, arg), &user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetOrCreateUser returns the user with user.FirebaseUID, creating it on first sign-in.
// The second return value is true when a row was inserted.
func (r *Repository) GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, bool, error) {
	existing, err := r.GetUserByFirebaseUID(ctx, user.FirebaseUID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	created := *user
	if err := r.CreateUser(ctx, &created); err != nil {
		// Handle race condition - another request may have created it
		if errors.Is(err, ErrFirebaseUIDExists) {
			existing, getErr := r.GetUserByFirebaseUID(ctx, user.FirebaseUID)
			return existing, false, getErr
		}
		return nil, false, err
	}

	return &created, true, nil
}

// ListUsersByRole returns all users holding role, oldest first.
func (r *Repository) ListUsersByRole(ctx context.Context, role string) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// UpdateUserRole sets the role of the user with id.
func (r *Repository) UpdateUserRole(ctx context.Context, id, role string) (*model.User, error) {
	query := `UPDATE users SET role = $2 WHERE id::text = $1 RETURNING ` + userColumns

	var user model.User
	if err := scanUser(r.pool.QueryRow(ctx, query, id, role), &user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	return &user, nil
}

func scanUser(row pgx.Row, user *model.User) error {
	return row.Scan(
		&user.ID,
		&user.FirebaseUID,
		&user.Email,
		&user.Username,
		&user.Role,
		&user.CreatedAt,
	)
}
