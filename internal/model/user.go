// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Role constants for users.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleUser, RoleAdmin}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	return slices.Contains(ValidRoles, role)
}

// User is an account created on first successful external-identity sign-in.
type User struct {
	ID          string    `json:"id"`
	FirebaseUID string    `json:"firebase_uid"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAdmin returns true if the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// EffectiveRole returns the role, falling back to the least-privileged one.
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}
