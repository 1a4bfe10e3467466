package cachestore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendHits tracks backend hits by backend kind (redis, memory)
	BackendHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicache_backend_hits_total",
			Help: "Total number of cache backend hits",
		},
		[]string{"backend"},
	)

	// BackendMisses tracks backend misses by backend kind
	BackendMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicache_backend_misses_total",
			Help: "Total number of cache backend misses",
		},
		[]string{"backend"},
	)

	// BackendErrors tracks backend operation errors
	BackendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicache_backend_errors_total",
			Help: "Total number of cache backend operation errors",
		},
		[]string{"backend", "operation"}, // "get", "set", "delete", "mget", "mset", "incr"
	)

	// BackendOpDuration tracks backend round-trip duration by operation
	BackendOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinicache_backend_op_duration_seconds",
			Help:    "Cache backend operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"backend", "operation"},
	)
)
