// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ProviderAttemptsTotal tracks individual provider invocations by outcome.
	ProviderAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_attempts_total",
			Help: "Provider invocations by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// DispatchDuration tracks the full dispatch (including failover) duration.
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Provider dispatch duration including failover",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "outcome"},
	)

	// SessionsActive tracks the number of live sessions in the store.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of sessions currently held in memory",
		},
	)

	// SessionsEvictedTotal tracks idle-session evictions.
	SessionsEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_evicted_total",
			Help: "Total sessions evicted for idleness",
		},
	)

	// ChatTurnsTotal tracks completed chat turns by validation status.
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total completed chat turns",
		},
		[]string{"provider", "validation_status"},
	)

	// WebhookMutationsTotal tracks webhook mutations by action, type and outcome.
	WebhookMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_mutations_total",
			Help: "Total webhook mutations processed",
		},
		[]string{"action", "type", "outcome"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordDispatch records metrics for a completed dispatch.
func RecordDispatch(provider, outcome string, duration float64) {
	DispatchDuration.WithLabelValues(provider, outcome).Observe(duration)
}

// RecordProviderAttempt records a single provider invocation.
func RecordProviderAttempt(provider, outcome string) {
	ProviderAttemptsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordWebhookMutation records a processed webhook mutation.
func RecordWebhookMutation(action, resourceType, outcome string) {
	WebhookMutationsTotal.WithLabelValues(action, resourceType, outcome).Inc()
}
