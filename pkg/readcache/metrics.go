package readcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sharedFlights counts GetOrSet calls resolved by an in-flight fetch
	// started by another caller (stampede prevention at work).
	sharedFlights = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinicache_singleflight_shared_total",
			Help: "Total number of reads served by sharing an in-flight fetch",
		},
	)

	// invalidations counts cache invalidations by scope
	invalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicache_invalidations_total",
			Help: "Total number of cache invalidations",
		},
		[]string{"scope"}, // "entity", "list"
	)
)
