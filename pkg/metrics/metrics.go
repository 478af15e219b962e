// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "interactions",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "interactions",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	storeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "interactions",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of backing store calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "outcome"},
	)

	toggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "interactions",
			Subsystem: "likes",
			Name:      "toggles_total",
			Help:      "Like toggles by entity kind and resulting state.",
		},
		[]string{"kind", "state"},
	)

	counterClamps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "interactions",
			Subsystem: "counters",
			Name:      "clamps_total",
			Help:      "Decrements that would have taken a counter below zero.",
		},
		[]string{"kind", "field"},
	)

	chatConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "interactions",
			Subsystem: "chats",
			Name:      "create_conflicts_total",
			Help:      "Chat creations that lost a unique-key race.",
		},
		[]string{"resolved"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		storeDuration,
		toggles,
		counterClamps,
		chatConflicts,
	)
}

// Handler exposes the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveStore records one store call.
func ObserveStore(operation string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storeDuration.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}

func RecordToggle(kind, state string) {
	toggles.WithLabelValues(kind, state).Inc()
}

func RecordClamp(kind, field string) {
	counterClamps.WithLabelValues(kind, field).Inc()
}

func RecordChatConflict(resolved bool) {
	chatConflicts.WithLabelValues(strconv.FormatBool(resolved)).Inc()
}
