package dto

import (
	"time"

	"github.com/walletshop/walletshop/internal/model"
)

// SyncUserRequest is the body of POST /api/users/sync.
type SyncUserRequest struct {
	FirebaseUID string `json:"firebaseUid"`
	Email       string `json:"email"`
	Username    string `json:"username,omitempty"`
}

// SetRoleRequest is the body of PATCH /api/admin/users/{id}/role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID          string    `json:"id"`
	FirebaseUID string    `json:"firebaseUid"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SyncUserResponse reports whether sign-in created the account.
type SyncUserResponse struct {
	User    UserResponse `json:"user"`
	Created bool         `json:"created"`
}

// UserListResponse lists users.
type UserListResponse struct {
	Data  []UserResponse `json:"data"`
	Total int            `json:"total"`
}

// ToUserResponse converts a User model to its DTO.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		FirebaseUID: u.FirebaseUID,
		Email:       u.Email,
		Username:    u.Username,
		Role:        u.EffectiveRole(),
		CreatedAt:   u.CreatedAt,
	}
}

// ToUserListResponse converts a slice of users.
func ToUserListResponse(users []*model.User) *UserListResponse {
	data := make([]UserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, ToUserResponse(u))
	}
	return &UserListResponse{Data: data, Total: len(data)}
}
