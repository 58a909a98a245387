// Package metrics exposes the blog's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "techtrends"

// rollingSamples is how many query latencies the rolling gauge averages.
const rollingSamples = 50

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	queryLatency = NewRollingMetric(rollingSamples)

	dbConnections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "connections_total",
			Help:      "Total number of database connections opened.",
		},
	)

	dbUnavailable = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "unavailable_total",
			Help:      "Connection attempts refused because the database file is missing.",
		},
	)

	dbQueryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_failures_total",
			Help:      "Failed repository operations by operation.",
		},
		[]string{"op"},
	)

	dbQueryLatency = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_latency_rolling_seconds",
			Help:      "Rolling average latency of the last database operations.",
		},
		queryLatency.Average,
	)

	postsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "posts",
			Name:      "created_total",
			Help:      "Total number of posts created.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		dbConnections,
		dbUnavailable,
		dbQueryFailures,
		dbQueryLatency,
		postsCreated,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func DBConnectionOpened() {
	dbConnections.Inc()
}

func DBUnavailable() {
	dbUnavailable.Inc()
}

// QueryFailed counts a failed repository operation.
func QueryFailed(op string) {
	dbQueryFailures.WithLabelValues(op).Inc()
}

// ObserveQuery feeds one database operation into the rolling latency gauge.
func ObserveQuery(d time.Duration) {
	queryLatency.Add(d.Seconds())
}

func PostCreated() {
	postsCreated.Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
