// Package service provides business logic for the application.
package service

import (
	"errors"
	"regexp"
)

// Service errors.
var (
	ErrInvalidProductID  = errors.New("invalid product id")
	ErrInvalidBasePrice  = errors.New("base price must be a non-negative amount")
	ErrInvalidPercentage = errors.New("discount percentage must be between 0 and 100")
	ErrInvalidWindow     = errors.New("end_date must be after start_date")
	ErrMissingWindow     = errors.New("start_date and end_date are required")
	ErrDiscountExists    = errors.New("discount already exists")

	ErrInvalidFirebaseUID = errors.New("invalid firebase uid")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered to another account")
)

// Product ids are opaque catalog keys: 1-128 chars of [A-Za-z0-9_.:-].
var productIDRegex = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// ValidateProductID checks a catalog product id.
func ValidateProductID(id string) error {
	if !productIDRegex.MatchString(id) {
		return ErrInvalidProductID
	}
	return nil
}
