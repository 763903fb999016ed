package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unigram_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unigram_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// InteractionsTotal counts completed interactions by action.
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unigram_interactions_total",
		Help: "Total number of interactions by action",
	}, []string{"action"})

	// NotificationsCreated counts stored notifications by kind.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unigram_notifications_created_total",
		Help: "Total number of notifications stored by kind",
	}, []string{"kind"})

	// NotificationsSuppressed counts interactions that produced no notification.
	NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unigram_notifications_suppressed_total",
		Help: "Total number of notifications suppressed by kind and reason",
	}, []string{"kind", "reason"})

	// NotificationWriteFailures counts notification writes that failed and were dropped.
	NotificationWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unigram_notification_write_failures_total",
		Help: "Total number of failed notification writes by kind",
	}, []string{"kind"})

	// RealtimePublishFailures counts realtime pushes that could not be delivered to the bus.
	RealtimePublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unigram_realtime_publish_failures_total",
		Help: "Total number of failed realtime notification publishes",
	})

	// StoriesPurged counts expired stories removed by the sweeper.
	StoriesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unigram_stories_purged_total",
		Help: "Total number of expired stories deleted",
	})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "unigram_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unigram_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
