package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncDiscountCacheHit is a no-op.
func (n *NoopRecorder) IncDiscountCacheHit() {}

// IncDiscountCacheMiss is a no-op.
func (n *NoopRecorder) IncDiscountCacheMiss() {}

// ObserveQuoteDuration is a no-op.
func (n *NoopRecorder) ObserveQuoteDuration(duration time.Duration) {}

// IncDiscountCreated is a no-op.
func (n *NoopRecorder) IncDiscountCreated() {}

// IncNotificationDispatched is a no-op.
func (n *NoopRecorder) IncNotificationDispatched(status string) {}

// IncIdentityBinding is a no-op.
func (n *NoopRecorder) IncIdentityBinding(status string) {}

// IncAuditEventPublished is a no-op.
func (n *NoopRecorder) IncAuditEventPublished(status string) {}

// ObservePushDuration is a no-op.
func (n *NoopRecorder) ObservePushDuration(duration time.Duration) {}

// IncEmailSent is a no-op.
func (n *NoopRecorder) IncEmailSent(status string) {}
