package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/walletshop/walletshop/internal/model"
	"github.com/walletshop/walletshop/internal/repository"
)

const maxFirebaseUIDLength = 128

// UserStore persists users.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, bool, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*model.User, error)
	UpdateUserRole(ctx context.Context, id, role string) (*model.User, error)
}

// UserService handles sign-in sync and role administration.
type UserService struct {
	store  UserStore
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger.With("component", "service.user"),
	}
}

// SyncUserInput is the identity asserted at sign-in.
type SyncUserInput struct {
	FirebaseUID string
	Email       string
	Username    string
}

// SyncUser returns the account for input.FirebaseUID, creating it on first sign-in.
// The bool is true when the account was created.
func (s *UserService) SyncUser(ctx context.Context, input SyncUserInput) (*model.User, bool, error) {
	uid := strings.TrimSpace(input.FirebaseUID)
	if uid == "" || len(uid) > maxFirebaseUIDLength {
		return nil, false, ErrInvalidFirebaseUID
	}

	addr, err := netmail.ParseAddress(strings.TrimSpace(input.Email))
	if err != nil {
		return nil, false, ErrInvalidEmail
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username, _, _ = strings.Cut(addr.Address, "@")
	}

	user, created, err := s.store.GetOrCreateUser(ctx, &model.User{
		FirebaseUID: uid,
		Email:       strings.ToLower(addr.Address),
		Username:    username,
		Role:        model.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, false, ErrEmailTaken
		}
		return nil, false, fmt.Errorf("failed to sync user: %w", err)
	}

	if created {
		s.logger.Info("user created", "user_id", user.ID)
	}
	return user, created, nil
}

// GetUser returns the account bound to firebaseUID.
func (s *UserService) GetUser(ctx context.Context, firebaseUID string) (*model.User, error) {
	if strings.TrimSpace(firebaseUID) == "" {
		return nil, ErrInvalidFirebaseUID
	}

	user, err := s.store.GetUserByFirebaseUID(ctx, firebaseUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// SetRole changes the role of the user with id.
func (s *UserService) SetRole(ctx context.Context, id, role string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidUserID
	}
	if !model.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := s.store.UpdateUserRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to set role: %w", err)
	}

	s.logger.Info("user role changed", "user_id", user.ID, "role", user.Role)
	return user, nil
}
