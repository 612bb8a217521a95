// Package metrics holds the Prometheus collectors shared by the benchmark
// packages. Collectors register on the default registry through promauto and
// are served by the API server on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sycobench"

// Outcome labels for model invocations
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Fallback kinds
const (
	FallbackArtifact = "artifact"
	FallbackPartial  = "partial"
	FallbackScore    = "score"
)

var (
	invocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_invocations_total",
			Help:      "Model invocations by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	invocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_invocation_duration_seconds",
			Help:      "Model invocation latency in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Values substituted because the model did not produce them",
		},
		[]string{"kind"},
	)

	trialDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trial_duration_seconds",
			Help:      "Wall time of one generate and dual-score trial",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Experiment runs by mode and final status",
		},
		[]string{"mode", "status"},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"database", "operation"},
	)

	dbQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_query_errors_total",
			Help:      "Database query errors",
		},
		[]string{"database", "operation"},
	)
)

// RecordInvocation records one model call
func RecordInvocation(provider, outcome string, duration time.Duration) {
	invocationsTotal.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeRejected {
		invocationDuration.WithLabelValues(provider).Observe(duration.Seconds())
	}
}

// SetBreakerState publishes a breaker transition
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordFallback counts a substituted value
func RecordFallback(kind string) {
	fallbacksTotal.WithLabelValues(kind).Inc()
}

// ObserveTrial records the duration of a completed trial
func ObserveTrial(duration time.Duration) {
	trialDuration.Observe(duration.Seconds())
}

// RecordRun counts a finished run
func RecordRun(mode, status string) {
	runsTotal.WithLabelValues(mode, status).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// RecordDBError records a database query error
func RecordDBError(database, operation string) {
	dbQueryErrors.WithLabelValues(database, operation).Inc()
}
