package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walletshop/walletshop/internal/metrics"
)

const (
	// AuditStreamKey is the Redis stream for dispatch outcomes.
	AuditStreamKey = "stream:notifications"

	// MaxAuditStreamLen is the approximate max length of the stream.
	MaxAuditStreamLen = 50000

	// AuditPublishTimeout is the max time to wait for Redis publish.
	AuditPublishTimeout = 200 * time.Millisecond
)

// Audit event kinds.
const (
	AuditKindSend   = "send"
	AuditKindAdmins = "admins"
)

// AuditEvent is the compact record appended to the audit stream.
type AuditEvent struct {
	Kind           string `json:"k"`
	Requested      int    `json:"n"`
	Success        bool   `json:"ok"`
	NotificationID string `json:"id,omitempty"`
	Error          string `json:"err,omitempty"`
	At             int64  `json:"t"` // Unix milliseconds
}

// StreamAuditor appends audit events to a Redis stream.
type StreamAuditor struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewStreamAuditor creates a new Redis-backed Auditor.
func NewStreamAuditor(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *StreamAuditor {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &StreamAuditor{
		redis:   client,
		logger:  logger.With("component", "notify.audit"),
		metrics: recorder,
	}
}

// Record appends an event synchronously and returns the stream id.
func (a *StreamAuditor) Record(ctx context.Context, event AuditEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := a.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: AuditStreamKey,
		MaxLen: MaxAuditStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}
	return id, nil
}

// RecordAsync appends without blocking the caller (fire-and-forget).
func (a *StreamAuditor) RecordAsync(event AuditEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), AuditPublishTimeout)
		defer cancel()

		id, err := a.Record(ctx, event)
		if err != nil {
			a.logger.Warn("failed to record notification audit event",
				"kind", event.Kind,
				"error", err,
			)
			a.metrics.IncAuditEventPublished(metrics.StatusDropped)
			return
		}

		a.logger.Debug("notification audit event recorded", "stream_id", id)
		a.metrics.IncAuditEventPublished(metrics.StatusSuccess)
	}()
}
