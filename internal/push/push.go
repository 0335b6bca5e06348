// Package push talks to the push-notification provider.
package push

import (
	"context"
	"errors"
)

// Sentinel errors for push operations.
var (
	ErrNotConfigured = errors.New("push provider not configured")
	ErrRejected      = errors.New("push provider rejected request")
	ErrNoRecipients  = errors.New("no recipients")
)

// Message is a notification addressed to external user ids.
type Message struct {
	ExternalUserIDs []string
	Title           string
	Body            string
	Icon            string
	Badge           string
}

// Ack is the provider's acknowledgement of an accepted message.
type Ack struct {
	ID         string
	Recipients int
}

// Provider delivers push messages and binds subscriber identities.
type Provider interface {
	Send(ctx context.Context, msg Message) (*Ack, error)
	SetExternalUserID(ctx context.Context, subscriberID, userID string) error
	SetEmail(ctx context.Context, subscriberID, email string) error
}
