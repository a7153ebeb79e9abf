package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics counts checkout state transitions and times each attempt.
type CheckoutMetrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_state_transitions_total",
		Help: "Checkout attempts entering each state.",
	}, []string{"state"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	reg.MustRegister(transitions, duration)
	return &CheckoutMetrics{
		transitions: transitions,
		duration:    duration,
	}
}

// IncState records a checkout attempt entering state.
func (c *CheckoutMetrics) IncState(state string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(state)).Inc()
}

// ObserveDuration records how long an operation took and whether it succeeded.
func (c *CheckoutMetrics) ObserveDuration(operation string, err error, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.duration.WithLabelValues(normalizeLabel(operation), outcome).Observe(duration.Seconds())
}

// OutboxMetrics records publisher outcomes per event type.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewOutboxMetrics registers the outbox publisher metrics.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events published to Pub/Sub.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_failed_total",
		Help: "Outbox publish failures.",
	}, []string{"event_type", "terminal"})
	reg.MustRegister(published, failed)
	return &OutboxMetrics{published: published, failed: failed}
}

func (o *OutboxMetrics) IncPublished(eventType string) {
	if o == nil || o.published == nil {
		return
	}
	o.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (o *OutboxMetrics) IncFailed(eventType string, terminal bool) {
	if o == nil || o.failed == nil {
		return
	}
	label := "false"
	if terminal {
		label = "true"
	}
	o.failed.WithLabelValues(normalizeLabel(eventType), label).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
