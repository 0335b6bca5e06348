// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels shared by the dispatch counters.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusDropped = "dropped"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory for tests.
type Recorder interface {
	// Discount metrics
	IncDiscountCacheHit()
	IncDiscountCacheMiss()
	ObserveQuoteDuration(duration time.Duration)
	IncDiscountCreated()

	// Notification metrics
	IncNotificationDispatched(status string) // status: "success" or "failed"
	IncIdentityBinding(status string)        // status: "success" or "failed"
	IncAuditEventPublished(status string)    // status: "success" or "dropped"
	ObservePushDuration(duration time.Duration)

	// Email metrics
	IncEmailSent(status string) // status: "success" or "failed"
}
