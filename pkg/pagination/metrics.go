package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// countModes tracks how totals were computed
	countModes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicache_count_mode_total",
			Help: "Total count computations by mode",
		},
		[]string{"mode"}, // "exact", "estimate"
	)
)
