package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agora_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache-aside lookups by layer and outcome.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_cache_lookups_total",
		Help: "Cache-aside lookups by layer (redis, local) and result (hit, miss)",
	}, []string{"layer", "result"})

	// DomainEvents counts social interactions such as likes, follows and shares.
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_domain_events_total",
		Help: "Total social interactions by event type",
	}, []string{"event"})

	// UploadBytes records accepted upload sizes by kind.
	UploadBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agora_upload_bytes",
		Help:    "Size of accepted uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 6),
	}, []string{"kind"})
)

// Domain event names recorded in DomainEvents.
const (
	EventUserSignedUp   = "user_signed_up"
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventPostLiked      = "post_liked"
	EventPostUnliked    = "post_unliked"
	EventCommentCreated = "comment_created"
	EventShareCreated   = "share_created"
	EventFollowed       = "followed"
	EventUnfollowed     = "unfollowed"
)

// RecordEvent increments the domain event counter.
func RecordEvent(event string) {
	DomainEvents.WithLabelValues(event).Inc()
}

// DatabaseMetrics records query latency for a single table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance for the given table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}
