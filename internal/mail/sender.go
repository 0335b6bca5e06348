// Package mail relays one-shot transactional email with caller-supplied credentials.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/walletshop/walletshop/internal/metrics"
	"github.com/walletshop/walletshop/internal/model"
)

// MaxRecipients caps recipients per message.
const MaxRecipients = 50

// Validation errors.
var (
	ErrNoRecipients       = errors.New("at least one recipient is required")
	ErrTooManyRecipients  = fmt.Errorf("at most %d recipients are allowed", MaxRecipients)
	ErrInvalidRecipient   = errors.New("invalid recipient address")
	ErrCredentialsMissing = errors.New("sender credentials are required")
	ErrInvalidSender      = errors.New("invalid sender address")
	ErrSubjectRequired    = errors.New("subject is required")
)

// Envelope is a validated message ready for a transport.
type Envelope struct {
	Username string
	Password string
	From     string
	To       []string
	Subject  string
	HTML     string
}

// Transport delivers one envelope and returns the message id it was sent with.
type Transport interface {
	Deliver(ctx context.Context, env Envelope) (string, error)
}

// Sender validates messages and relays them through a Transport.
type Sender struct {
	transport Transport
	policy    *bluemonday.Policy
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// Option configures a Sender.
type Option func(*Sender)

// WithSanitizer strips unsafe markup from HTML bodies before sending.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(s *Sender) { s.policy = policy }
}

// NewSender creates a new Sender.
func NewSender(transport Transport, logger *slog.Logger, recorder metrics.Recorder, opts ...Option) *Sender {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	s := &Sender{
		transport: transport,
		logger:    logger.With("component", "mail.sender"),
		metrics:   recorder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks a message and returns its envelope.
func Validate(msg model.EmailMessage) (Envelope, error) {
	if len(msg.To) == 0 {
		return Envelope{}, ErrNoRecipients
	}
	if len(msg.To) > MaxRecipients {
		return Envelope{}, ErrTooManyRecipients
	}

	to := make([]string, 0, len(msg.To))
	for _, raw := range msg.To {
		addr, err := netmail.ParseAddress(strings.TrimSpace(raw))
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: %q", ErrInvalidRecipient, raw)
		}
		to = append(to, addr.Address)
	}

	if strings.TrimSpace(msg.Username) == "" || msg.Password == "" {
		return Envelope{}, ErrCredentialsMissing
	}
	from, err := netmail.ParseAddress(strings.TrimSpace(msg.Username))
	if err != nil {
		return Envelope{}, ErrInvalidSender
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return Envelope{}, ErrSubjectRequired
	}

	return Envelope{
		Username: strings.TrimSpace(msg.Username),
		Password: msg.Password,
		From:     from.Address,
		To:       to,
		Subject:  msg.Subject,
		HTML:     msg.HTML,
	}, nil
}

// Send validates msg and relays it once. Failures are returned as values.
func (s *Sender) Send(ctx context.Context, msg model.EmailMessage) model.EmailResult {
	env, err := Validate(msg)
	if err != nil {
		return s.fail(err, len(msg.To))
	}
	if s.transport == nil {
		return s.fail(errors.New("mail transport not configured"), len(env.To))
	}
	if s.policy != nil {
		env.HTML = s.policy.Sanitize(env.HTML)
	}

	id, err := s.transport.Deliver(ctx, env)
	if err != nil {
		return s.fail(err, len(env.To))
	}

	s.logger.Info("email relayed",
		"message_id", id,
		"recipients", len(env.To),
	)
	s.metrics.IncEmailSent(metrics.StatusSuccess)
	return model.EmailResult{Success: true, MessageID: id}
}

func (s *Sender) fail(err error, recipients int) model.EmailResult {
	s.logger.Warn("email relay failed",
		"recipients", recipients,
		"error", err,
	)
	s.metrics.IncEmailSent(metrics.StatusFailed)
	return model.EmailResult{Success: false, Error: err.Error()}
}
