package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	geminiResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gemctl",
			Subsystem: "gemini",
			Name:      "responses_total",
			Help:      "Gemini responses started, by status.",
		},
		[]string{"status", "category"},
	)
	geminiDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gemctl",
			Subsystem: "gemini",
			Name:      "response_duration_seconds",
			Help:      "Time from accept to final body frame.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	geminiRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gemctl",
			Subsystem: "gemini",
			Name:      "rejected_requests_total",
			Help:      "Request lines rejected before dispatch, by status.",
		},
		[]string{"status"},
	)
	geminiConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gemctl",
			Subsystem: "gemini",
			Name:      "active_connections",
			Help:      "Connections currently held open.",
		},
	)
	geminiAppFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gemctl",
			Subsystem: "gemini",
			Name:      "application_failures_total",
			Help:      "Application instances that ended with an error.",
		},
	)
	geminiViolations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gemctl",
			Subsystem: "gemini",
			Name:      "protocol_violations_total",
			Help:      "Application messages rejected as protocol violations.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gemctl",
			Subsystem: "admin_http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests, by route and token outcome.",
		},
		[]string{"service", "method", "route", "status", "auth"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gemctl",
			Subsystem: "admin_http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "route"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			geminiResponses,
			geminiDuration,
			geminiRejected,
			geminiConnections,
			geminiAppFailures,
			geminiViolations,
			httpRequests,
			httpDuration,
		)
	})
}

func RecordResponse(status int, category string) {
	RegisterMetrics()
	geminiResponses.WithLabelValues(strconv.Itoa(status), category).Inc()
}

func RecordResponseDuration(duration time.Duration) {
	RegisterMetrics()
	geminiDuration.Observe(duration.Seconds())
}

func RecordRejectedRequest(status int) {
	RegisterMetrics()
	geminiRejected.WithLabelValues(strconv.Itoa(status)).Inc()
}

func RecordApplicationFailure() {
	RegisterMetrics()
	geminiAppFailures.Inc()
}

func RecordProtocolViolation() {
	RegisterMetrics()
	geminiViolations.Inc()
}

func ConnectionOpened() {
	RegisterMetrics()
	geminiConnections.Inc()
}

func ConnectionClosed() {
	RegisterMetrics()
	geminiConnections.Dec()
}

// RecordHTTPRequest counts one admin request. auth is "open", "ok" or "denied".
func RecordHTTPRequest(service, method, route string, status int, auth string, duration time.Duration) {
	RegisterMetrics()
	httpRequests.WithLabelValues(service, method, route, strconv.Itoa(status), auth).Inc()
	httpDuration.WithLabelValues(service, method, route).Observe(duration.Seconds())
}
