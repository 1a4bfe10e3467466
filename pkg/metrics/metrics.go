// Package metrics provides the centralized Prometheus metrics registry for
// the read-path middleware. All metrics are defined in their respective
// packages (cachestore, readcache, loader, pagination, reader) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the read-path
// middleware. All metrics are automatically registered via promauto in
// their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Backend Metrics (pkg/cachestore):
//   - clinicache_backend_hits_total{backend} (Counter): Backend key hits
//   - clinicache_backend_misses_total{backend} (Counter): Backend key misses
//   - clinicache_backend_errors_total{backend, operation} (Counter): Backend operation errors
//   - clinicache_backend_op_duration_seconds{backend, operation} (Histogram): Backend operation latency
//
// Cache Metrics (pkg/readcache):
//   - clinicache_shared_flights_total (Counter): Reads that piggybacked on an in-flight fetch
//   - clinicache_invalidations_total{scope} (Counter): Invalidations by scope (entity, list)
//
// Loader Metrics (pkg/loader):
//   - clinicache_batch_size{kind} (Histogram): Distinct keys per dispatched batch
//   - clinicache_batch_dispatches_total{kind, trigger} (Counter): Batches by close trigger (timer, size)
//   - clinicache_batch_errors_total{kind} (Counter): Failed batch fetches
//
// Pagination Metrics (pkg/pagination):
//   - clinicache_count_mode_total{mode} (Counter): Totals by computation mode (exact, estimate)
//
// Read Metrics (pkg/reader):
//   - clinicache_reads_total{resource, op, outcome} (Counter): Reads by resource, operation and outcome
//   - clinicache_read_duration_seconds{resource, op} (Histogram): Read duration
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(clinicache_reads_total{outcome="hit"}[5m])) /
//   sum(rate(clinicache_reads_total{outcome=~"hit|miss"}[5m]))
//
//   # Coalescing Effectiveness
//   rate(clinicache_shared_flights_total[5m])
//
//   # Mean Batch Size
//   rate(clinicache_batch_size_sum[5m]) / rate(clinicache_batch_size_count[5m])
//
//   # P95 Read Latency
//   histogram_quantile(0.95, rate(clinicache_read_duration_seconds_bucket[5m]))
//
//   # Estimated vs Exact Counts
//   rate(clinicache_count_mode_total{mode="estimate"}[5m])
