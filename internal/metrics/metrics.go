// Package metrics exposes Prometheus collectors for batchpay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "batchpay",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "batchpay",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "batchpay",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	batchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "batchpay",
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Total number of batch payment runs by outcome.",
		},
		[]string{"status"},
	)

	groupsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "batchpay",
			Subsystem: "batch",
			Name:      "groups_processed_total",
			Help:      "Total number of payment groups processed by result.",
		},
		[]string{"result"},
	)

	txSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "batchpay",
			Subsystem: "chain",
			Name:      "transactions_submitted_total",
			Help:      "Total number of transactions submitted by kind.",
		},
		[]string{"kind"},
	)

	suggestionRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "batchpay",
			Subsystem: "suggest",
			Name:      "refreshes_total",
			Help:      "Total number of suggestion cache refreshes.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		batchRuns,
		groupsProcessed,
		txSubmitted,
		suggestionRefreshes,
	)
}

// HTTPInFlightInc increments the in-flight HTTP request gauge.
func HTTPInFlightInc() { httpInFlight.Inc() }

// HTTPInFlightDec decrements the in-flight HTTP request gauge.
func HTTPInFlightDec() { httpInFlight.Dec() }

// HTTPRequestObserved records a completed HTTP request.
func HTTPRequestObserved(method, path, status string, seconds float64) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(seconds)
}

// BatchRunObserved records a batch run outcome.
func BatchRunObserved(status string) { batchRuns.WithLabelValues(status).Inc() }

// GroupObserved records a processed payment group result.
func GroupObserved(result string) { groupsProcessed.WithLabelValues(result).Inc() }

// TxSubmitted records a submitted transaction by kind.
func TxSubmitted(kind string) { txSubmitted.WithLabelValues(kind).Inc() }

// SuggestionRefreshObserved records a suggestion cache refresh.
func SuggestionRefreshObserved() { suggestionRefreshes.Inc() }
