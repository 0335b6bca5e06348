package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	DiscountCacheHits    uint64
	DiscountCacheMisses  uint64
	QuoteDurationCount   uint64
	QuoteDurationTotalNs int64
	DiscountsCreated     uint64
	PushDurationCount    uint64

	NotificationsDispatched map[string]uint64
	IdentityBindings        map[string]uint64
	AuditEvents             map[string]uint64
	EmailsSent              map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	discountCacheHits    uint64
	discountCacheMisses  uint64
	quoteDurationCount   uint64
	quoteDurationTotalNs int64
	discountsCreated     uint64
	pushDurationCount    uint64

	mu         sync.Mutex
	dispatched map[string]uint64
	bindings   map[string]uint64
	audit      map[string]uint64
	emails     map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		dispatched: make(map[string]uint64),
		bindings:   make(map[string]uint64),
		audit:      make(map[string]uint64),
		emails:     make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		DiscountCacheHits:       atomic.LoadUint64(&m.discountCacheHits),
		DiscountCacheMisses:     atomic.LoadUint64(&m.discountCacheMisses),
		QuoteDurationCount:      atomic.LoadUint64(&m.quoteDurationCount),
		QuoteDurationTotalNs:    atomic.LoadInt64(&m.quoteDurationTotalNs),
		DiscountsCreated:        atomic.LoadUint64(&m.discountsCreated),
		PushDurationCount:       atomic.LoadUint64(&m.pushDurationCount),
		NotificationsDispatched: copyCounts(m.dispatched),
		IdentityBindings:        copyCounts(m.bindings),
		AuditEvents:             copyCounts(m.audit),
		EmailsSent:              copyCounts(m.emails),
	}
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, status string) {
	m.mu.Lock()
	counts[status]++
	m.mu.Unlock()
}

// IncDiscountCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncDiscountCacheHit() {
	atomic.AddUint64(&m.discountCacheHits, 1)
}

// IncDiscountCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncDiscountCacheMiss() {
	atomic.AddUint64(&m.discountCacheMisses, 1)
}

// ObserveQuoteDuration records quote duration.
func (m *InMemoryRecorder) ObserveQuoteDuration(duration time.Duration) {
	atomic.AddUint64(&m.quoteDurationCount, 1)
	atomic.AddInt64(&m.quoteDurationTotalNs, duration.Nanoseconds())
}

// IncDiscountCreated increments discount created counter.
func (m *InMemoryRecorder) IncDiscountCreated() {
	atomic.AddUint64(&m.discountsCreated, 1)
}

// IncNotificationDispatched counts a dispatch outcome.
func (m *InMemoryRecorder) IncNotificationDispatched(status string) {
	m.inc(m.dispatched, status)
}

// IncIdentityBinding counts an identity binding outcome.
func (m *InMemoryRecorder) IncIdentityBinding(status string) {
	m.inc(m.bindings, status)
}

// IncAuditEventPublished counts an audit publish outcome.
func (m *InMemoryRecorder) IncAuditEventPublished(status string) {
	m.inc(m.audit, status)
}

// ObservePushDuration records a push provider round trip.
func (m *InMemoryRecorder) ObservePushDuration(duration time.Duration) {
	atomic.AddUint64(&m.pushDurationCount, 1)
}

// IncEmailSent counts an email relay outcome.
func (m *InMemoryRecorder) IncEmailSent(status string) {
	m.inc(m.emails, status)
}
