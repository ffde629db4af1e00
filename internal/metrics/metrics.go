package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pulse_web"

var (
	once sync.Once

	pageRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Page and action requests by route pattern and status code.",
		},
		[]string{"route", "status"},
	)

	pageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time spent serving a page or action.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	backendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Outbound backend API calls by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	domainEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "User actions that reached the backend successfully, by type.",
		},
		[]string{"type"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(pageRequests, pageDuration, backendCalls, domainEvents)
	})
}

// ObserveRequest records a served request.
func ObserveRequest(route string, status int, dur time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	pageRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	pageDuration.WithLabelValues(route).Observe(dur.Seconds())
}

// IncBackend counts one outbound call. outcome is "ok", "http_error" or
// "transport_error".
func IncBackend(method, outcome string) {
	backendCalls.WithLabelValues(method, outcome).Inc()
}

// IncEvent counts a published domain event.
func IncEvent(eventType string) {
	domainEvents.WithLabelValues(eventType).Inc()
}
