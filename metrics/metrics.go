// Package metrics provides Prometheus metrics for lockservice operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockservice_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lockservice_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Lock operation metrics
	LockOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockservice_lock_operations_total",
			Help: "Total number of lock operations",
		},
		[]string{"operation", "result"}, // operation: "acquire", "heartbeat", "release", "status"; result: "success", "reentrant", "held", "not_found", "invalid", "error"
	)

	LockOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lockservice_lock_operation_duration_seconds",
			Help:    "Lock operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Active locks gauge, refreshed by the sweep and snapshot workers
	ActiveLocks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lockservice_active_locks",
			Help: "Number of records held by the in-process store, updated on each sweep and snapshot",
		},
	)

	ExpiredLocksRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lockservice_expired_locks_removed_total",
			Help: "Total number of expired locks removed by the sweep worker",
		},
	)

	// Snapshot persistence metrics
	SnapshotPersistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockservice_snapshot_persist_total",
			Help: "Total number of snapshot persist attempts",
		},
		[]string{"status"}, // "success", "failure"
	)

	SnapshotRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lockservice_snapshot_records",
			Help: "Number of records written by the last successful snapshot",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockservice_errors_total",
			Help: "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
)

// RegisterMetrics ensures all metrics are registered with Prometheus.
// This function is idempotent and safe to call multiple times.
func RegisterMetrics() {
	// All metrics are automatically registered via promauto.
	// This function exists for explicit initialization if needed.
}
