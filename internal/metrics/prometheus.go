package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "walletshop"

// PrometheusRecorder exports Recorder events as Prometheus collectors.
type PrometheusRecorder struct {
	discountCache   *prometheus.CounterVec
	quoteDuration   prometheus.Histogram
	discountCreated prometheus.Counter
	dispatched      *prometheus.CounterVec
	bindings        *prometheus.CounterVec
	audit           *prometheus.CounterVec
	pushDuration    prometheus.Histogram
	emails          *prometheus.CounterVec
}

// NewPrometheus creates a PrometheusRecorder and registers its collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		discountCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_cache_lookups_total",
			Help:      "Discount candidate cache lookups by result.",
		}, []string{"result"}),
		quoteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_seconds",
			Help:      "Time to load candidates and price a product.",
			Buckets:   prometheus.DefBuckets,
		}),
		discountCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discounts_created_total",
			Help:      "Discounts created by administrators.",
		}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dispatched_total",
			Help:      "Push notification dispatches by outcome.",
		}, []string{"status"}),
		bindings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_bindings_total",
			Help:      "Push subscriber identity bindings by outcome.",
		}, []string{"status"}),
		audit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_audit_events_total",
			Help:      "Notification audit stream appends by outcome.",
		}, []string{"status"}),
		pushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "push_request_duration_seconds",
			Help:      "Push provider request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Transactional email relays by outcome.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		r.discountCache,
		r.quoteDuration,
		r.discountCreated,
		r.dispatched,
		r.bindings,
		r.audit,
		r.pushDuration,
		r.emails,
	)

	return r
}

// IncDiscountCacheHit counts a cache hit.
func (r *PrometheusRecorder) IncDiscountCacheHit() {
	r.discountCache.WithLabelValues("hit").Inc()
}

// IncDiscountCacheMiss counts a cache miss.
func (r *PrometheusRecorder) IncDiscountCacheMiss() {
	r.discountCache.WithLabelValues("miss").Inc()
}

// ObserveQuoteDuration records quote latency.
func (r *PrometheusRecorder) ObserveQuoteDuration(duration time.Duration) {
	r.quoteDuration.Observe(duration.Seconds())
}

// IncDiscountCreated counts a created discount.
func (r *PrometheusRecorder) IncDiscountCreated() {
	r.discountCreated.Inc()
}

// IncNotificationDispatched counts a dispatch outcome.
func (r *PrometheusRecorder) IncNotificationDispatched(status string) {
	r.dispatched.WithLabelValues(status).Inc()
}

// IncIdentityBinding counts an identity binding outcome.
func (r *PrometheusRecorder) IncIdentityBinding(status string) {
	r.bindings.WithLabelValues(status).Inc()
}

// IncAuditEventPublished counts an audit publish outcome.
func (r *PrometheusRecorder) IncAuditEventPublished(status string) {
	r.audit.WithLabelValues(status).Inc()
}

// ObservePushDuration records push provider latency.
func (r *PrometheusRecorder) ObservePushDuration(duration time.Duration) {
	r.pushDuration.Observe(duration.Seconds())
}

// IncEmailSent counts an email relay outcome.
func (r *PrometheusRecorder) IncEmailSent(status string) {
	r.emails.WithLabelValues(status).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
