package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the client's collectors. Callers that expose metrics
	// register it with their own handler.
	Registry = prometheus.NewRegistry()

	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "curnce",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the backend.",
		},
		[]string{"method", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "curnce",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method"},
	)

	refreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "curnce",
			Subsystem: "gateway",
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts by result.",
		},
		[]string{"result"},
	)

	sessionExpiries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "curnce",
			Subsystem: "gateway",
			Name:      "session_expiries_total",
			Help:      "Sessions cleared because they could not be refreshed.",
		},
	)
)

func init() {
	Registry.MustRegister(requests, requestDuration, refreshes, sessionExpiries)
}

// ObserveRequest records one exchange with the backend. status is 0 when the
// transport failed before a response arrived.
func ObserveRequest(method string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	requests.WithLabelValues(method, label).Inc()
	requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveRefresh records a refresh attempt; result is one of "success",
// "failure" or "reused".
func ObserveRefresh(result string) {
	refreshes.WithLabelValues(result).Inc()
}

func ObserveSessionExpired() {
	sessionExpiries.Inc()
}

// RequestCount returns the counter for a method/status pair.
func RequestCount(method, status string) prometheus.Counter {
	return requests.WithLabelValues(method, status)
}

// RefreshCount returns the counter for a refresh result.
func RefreshCount(result string) prometheus.Counter {
	return refreshes.WithLabelValues(result)
}

func SessionExpiredCount() prometheus.Counter {
	return sessionExpiries
}
