// Package notify dispatches push notifications and reports tagged outcomes.
//
// Every failure is converted into a model.DispatchResult at this boundary;
// callers never receive a Go error or a panic from a dispatch.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/walletshop/walletshop/internal/metrics"
	"github.com/walletshop/walletshop/internal/model"
	"github.com/walletshop/walletshop/internal/push"
)

const (
	// IdentityTimeout bounds a detached identity binding.
	IdentityTimeout = 10 * time.Second

	// MaxRecipients caps recipients per dispatch.
	MaxRecipients = 2000
)

// Validation errors.
var (
	ErrNoRecipients    = errors.New("at least one recipient is required")
	ErrTooManyRecips   = fmt.Errorf("at most %d recipients are allowed", MaxRecipients)
	ErrTitleRequired   = errors.New("title is required")
	ErrBodyRequired    = errors.New("body is required")
	ErrNoAdmins        = errors.New("no admin recipients")
	ErrSubscriberEmpty = errors.New("subscriber id is required")
)

// AdminResolver lists users holding a role.
type AdminResolver interface {
	ListUsersByRole(ctx context.Context, role string) ([]*model.User, error)
}

// Auditor records dispatch outcomes without blocking the caller.
type Auditor interface {
	RecordAsync(event AuditEvent)
}

// Dispatcher sends notifications through a push provider.
type Dispatcher struct {
	provider push.Provider
	admins   AdminResolver
	auditor  Auditor
	logger   *slog.Logger
	metrics  metrics.Recorder

	inflight sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAuditor enables the audit channel.
func WithAuditor(a Auditor) Option {
	return func(d *Dispatcher) { d.auditor = a }
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(provider push.Provider, admins AdminResolver, logger *slog.Logger, recorder metrics.Recorder, opts ...Option) *Dispatcher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	d := &Dispatcher{
		provider: provider,
		admins:   admins,
		logger:   logger.With("component", "notify.dispatcher"),
		metrics:  recorder,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Validate checks a notification before dispatch.
func Validate(n model.Notification) error {
	if len(compact(n.RecipientIDs)) == 0 {
		return ErrNoRecipients
	}
	if len(n.RecipientIDs) > MaxRecipients {
		return ErrTooManyRecips
	}
	return validateContent(n.Title, n.Body)
}

// ValidateAdmin checks an admin notification before dispatch.
func ValidateAdmin(n model.AdminNotification) error {
	return validateContent(n.Title, n.Body)
}

func validateContent(title, body string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(body) == "" {
		return ErrBodyRequired
	}
	return nil
}

// Send dispatches n to its recipients.
func (d *Dispatcher) Send(ctx context.Context, n model.Notification) model.DispatchResult {
	result := d.send(ctx, n)
	d.finish(AuditKindSend, len(n.RecipientIDs), result)
	return result
}

// SendToAdmins dispatches n to every user with the admin role.
func (d *Dispatcher) SendToAdmins(ctx context.Context, n model.AdminNotification) model.DispatchResult {
	result, recipients := d.sendToAdmins(ctx, n)
	d.finish(AuditKindAdmins, recipients, result)
	return result
}

func (d *Dispatcher) sendToAdmins(ctx context.Context, n model.AdminNotification) (model.DispatchResult, int) {
	if err := validateContent(n.Title, n.Body); err != nil {
		return failure(err), 0
	}
	if d.admins == nil {
		return failure(ErrNoAdmins), 0
	}

	users, err := d.admins.ListUsersByRole(ctx, model.RoleAdmin)
	if err != nil {
		return failure(fmt.Errorf("resolve admins: %w", err)), 0
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.FirebaseUID != "" {
			ids = append(ids, u.FirebaseUID)
		}
	}
	if len(ids) == 0 {
		return failure(ErrNoAdmins), 0
	}

	result := d.send(ctx, model.Notification{
		RecipientIDs: ids,
		Title:        n.Title,
		Body:         n.Body,
		Icon:         n.Icon,
	})
	return result, len(ids)
}

func (d *Dispatcher) send(ctx context.Context, n model.Notification) (result model.DispatchResult) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("push provider panic", "panic", rec)
			result = failure(fmt.Errorf("push provider panic: %v", rec))
		}
	}()

	if err := Validate(n); err != nil {
		return failure(err)
	}
	if d.provider == nil {
		return failure(push.ErrNotConfigured)
	}

	start := time.Now()
	ack, err := d.provider.Send(ctx, push.Message{
		ExternalUserIDs: compact(n.RecipientIDs),
		Title:           n.Title,
		Body:            n.Body,
		Icon:            n.Icon,
		Badge:           n.Badge,
	})
	d.metrics.ObservePushDuration(time.Since(start))

	if err != nil {
		return failure(err)
	}
	if ack == nil {
		return failure(errors.New("push provider returned no acknowledgement"))
	}

	return model.DispatchResult{Success: true, ID: ack.ID, Recipients: ack.Recipients}
}

func (d *Dispatcher) finish(kind string, recipients int, result model.DispatchResult) {
	if result.Success {
		d.metrics.IncNotificationDispatched(metrics.StatusSuccess)
		d.logger.Info("notification dispatched",
			"kind", kind,
			"notification_id", result.ID,
			"recipients", result.Recipients,
		)
	} else {
		d.metrics.IncNotificationDispatched(metrics.StatusFailed)
		d.logger.Warn("notification dispatch failed",
			"kind", kind,
			"requested", recipients,
			"error", result.Error,
		)
	}

	if d.auditor != nil {
		d.auditor.RecordAsync(AuditEvent{
			Kind:           kind,
			Requested:      recipients,
			Success:        result.Success,
			NotificationID: result.ID,
			Error:          result.Error,
			At:             time.Now().UnixMilli(),
		})
	}
}

// BindIdentity associates a push subscriber with a local user and optional email.
// It returns immediately; failures are logged and counted, never surfaced.
func (d *Dispatcher) BindIdentity(b model.IdentityBinding) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), IdentityTimeout)
		defer cancel()

		if err := d.bind(ctx, b); err != nil {
			d.logger.Warn("identity binding failed",
				"subscriber_id", b.SubscriberID,
				"error", err,
			)
			d.metrics.IncIdentityBinding(metrics.StatusFailed)
			return
		}
		d.metrics.IncIdentityBinding(metrics.StatusSuccess)
	}()
}

func (d *Dispatcher) bind(ctx context.Context, b model.IdentityBinding) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("push provider panic: %v", rec)
		}
	}()

	if strings.TrimSpace(b.SubscriberID) == "" {
		return ErrSubscriberEmpty
	}
	if d.provider == nil {
		return push.ErrNotConfigured
	}

	if b.UserID != "" {
		if err := d.provider.SetExternalUserID(ctx, b.SubscriberID, b.UserID); err != nil {
			return fmt.Errorf("set external user id: %w", err)
		}
	}
	if b.Email != "" {
		if err := d.provider.SetEmail(ctx, b.SubscriberID, b.Email); err != nil {
			return fmt.Errorf("set email: %w", err)
		}
	}
	return nil
}

// Wait blocks until detached identity bindings finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func failure(err error) model.DispatchResult {
	msg := err.Error()
	if msg == "" {
		msg = "notification dispatch failed"
	}
	return model.DispatchResult{Success: false, Error: msg}
}

// compact drops blank and duplicate ids, preserving order.
func compact(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
