package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Checkpoint processing metrics (pkg/checkpoint, pkg/committer)
	CheckpointsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dubhe_checkpoints_processed_total",
			Help: "Total number of checkpoints processed into store events",
		},
	)

	CheckpointSequence = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dubhe_checkpoint_sequence",
			Help: "Sequence number of the most recently processed checkpoint",
		},
	)

	EventsDecodedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dubhe_events_decoded_total",
			Help: "Total number of store events decoded, by event type",
		},
		[]string{"event_type"},
	)

	EventsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dubhe_events_rejected_total",
			Help: "Total number of store events rejected by CanCompile, by reason",
		},
		[]string{"reason"},
	)

	DecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dubhe_decode_errors_total",
			Help: "Total number of per-field decode errors, by table",
		},
		[]string{"table"},
	)

	// Commit metrics (pkg/committer)
	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dubhe_commit_duration_seconds",
			Help:    "Time taken to apply a batch of compiled SQL statements in one transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommitBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dubhe_commit_batch_size",
			Help:    "Number of SQL statements committed per batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	CommitErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dubhe_commit_errors_total",
			Help: "Total number of commit batches that failed and were rolled back",
		},
	)

	// Cache metrics (pkg/cache)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dubhe_cache_hits_total",
			Help: "Total number of object cache hits, by layer (l0, l1)",
		},
		[]string{"layer"},
	)

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dubhe_cache_misses_total",
			Help: "Total number of object cache misses, by layer (l0, l1)",
		},
		[]string{"layer"},
	)

	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dubhe_cache_objects",
			Help: "Number of objects currently held in the L0 in-memory cache",
		},
	)

	// Subscription hub metrics (pkg/hub)
	SubscribersActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dubhe_subscribers_active",
			Help: "Number of active subscribers, by table",
		},
		[]string{"table"},
	)

	ChangesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dubhe_changes_published_total",
			Help: "Total number of change records published to subscribers, by table",
		},
		[]string{"table"},
	)

	ChangesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dubhe_changes_dropped_total",
			Help: "Total number of change records dropped due to a full subscriber buffer, by table",
		},
		[]string{"table"},
	)

	// Query service metrics (pkg/query)
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dubhe_query_duration_seconds",
			Help:    "Query execution duration in seconds, by table",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	QueryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dubhe_query_errors_total",
			Help: "Total number of query errors, by reason",
		},
		[]string{"reason"},
	)

	// Submission endpoint metrics (pkg/submit, pkg/vm)
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dubhe_submissions_total",
			Help: "Total number of simulate/submit requests, by chain and outcome",
		},
		[]string{"chain", "outcome"},
	)

	SimulateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dubhe_simulate_duration_seconds",
			Help:    "Time taken for the VM driver to simulate a transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RPC/HTTP surface metrics (pkg/router, pkg/rpc)
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dubhe_rpc_requests_total",
			Help: "Total number of RPC/HTTP requests, by method and status",
		},
		[]string{"method", "status"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dubhe_rpc_request_duration_seconds",
			Help:    "RPC/HTTP request duration in seconds, by method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(CheckpointsProcessedTotal)
	prometheus.MustRegister(CheckpointSequence)
	prometheus.MustRegister(EventsDecodedTotal)
	prometheus.MustRegister(EventsRejectedTotal)
	prometheus.MustRegister(DecodeErrorsTotal)

	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(CommitBatchSize)
	prometheus.MustRegister(CommitErrorsTotal)

	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheSize)

	prometheus.MustRegister(SubscribersActive)
	prometheus.MustRegister(ChangesPublishedTotal)
	prometheus.MustRegister(ChangesDroppedTotal)

	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryErrorsTotal)

	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(SimulateDuration)

	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
