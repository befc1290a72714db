package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SchedulesActive is the number of registered briefing schedules.
	SchedulesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedules_active",
			Help: "Number of registered briefing schedules",
		},
	)

	// BriefingsFired counts briefing firings by outcome (sent, skipped_empty, send_failed).
	BriefingsFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefings_fired_total",
			Help: "Total number of briefing firings by outcome",
		},
		[]string{"outcome"},
	)

	// ProviderErrors counts failed provider queries by provider.
	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Total number of failed search provider calls",
		},
		[]string{"provider"},
	)
)

var (
	userPathSegment = regexp.MustCompile(`^(/schedule)/[^/]+`)
	initOnce        sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, SchedulesActive, BriefingsFired, ProviderErrors)
	})
}

// NormalizePath reduces cardinality by replacing the user segment with {user_id}.
// E.g. /schedule/u1/pause -> /schedule/{user_id}/pause.
func NormalizePath(path string) string {
	return userPathSegment.ReplaceAllString(path, "$1/{user_id}")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// SetSchedulesActive sets the active-schedules gauge.
func SetSchedulesActive(n int) {
	SchedulesActive.Set(float64(n))
}

// IncBriefing increments the firing counter for the given outcome
// (sent, skipped_empty, send_failed).
func IncBriefing(outcome string) {
	BriefingsFired.WithLabelValues(outcome).Inc()
}

// IncProviderError increments the provider failure counter.
func IncProviderError(provider string) {
	ProviderErrors.WithLabelValues(provider).Inc()
}
