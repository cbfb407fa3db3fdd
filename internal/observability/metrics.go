// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zenith_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zenith_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthEvents counts authentication outcomes.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zenith_auth_events_total",
		Help: "Authentication events by type and result",
	}, []string{"event", "result"})

	// CacheLookups counts cache-aside hits and misses by key family.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zenith_cache_lookups_total",
		Help: "Cache lookups by key family and result",
	}, []string{"family", "result"})

	// CleanupDeleted counts rows purged by the archive cleanup job.
	CleanupDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zenith_cleanup_deleted_total",
		Help: "Archived rows deleted by the cleanup job",
	}, []string{"entity"})

	// CleanupRuns counts cleanup job runs by result.
	CleanupRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zenith_cleanup_runs_total",
		Help: "Cleanup job runs by result",
	}, []string{"result"})

	// ModerationEvents counts events pushed to moderators.
	ModerationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zenith_moderation_events_total",
		Help: "Moderation events by type",
	}, []string{"event_type"})

	// WebSocketConnections is the gauge of live moderator WebSocket connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zenith_websocket_connections",
		Help: "Number of active moderator WebSocket connections",
	})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, elapsed time.Duration) {
	if table == "" {
		table = "unknown"
	}
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(elapsed.Seconds())
}

// RecordAuth increments the auth outcome counter.
func RecordAuth(event string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	AuthEvents.WithLabelValues(event, result).Inc()
}
