package loader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// batchSize tracks dispatched batch sizes (distinct keys) by kind
	batchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinicache_loader_batch_size",
			Help:    "Distinct keys per dispatched loader batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"kind"},
	)

	// dispatches tracks batch dispatches by kind and trigger
	dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicache_loader_dispatches_total",
			Help: "Total loader batch dispatches",
		},
		[]string{"kind", "trigger"}, // "timer", "size"
	)

	// batchErrors tracks failed batch fetches by kind
	batchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicache_loader_batch_errors_total",
			Help: "Total failed loader batch fetches",
		},
		[]string{"kind"},
	)
)
