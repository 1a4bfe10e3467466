// Package stats tracks fleet-wide cache effectiveness counters in the
// shared key-value backend, so hit ratios can be judged across every
// instance serving the same tenant traffic.
package stats

import (
	"strconv"
	"time"
)

// Backend keys for the shared counters.
const (
	KeyHits   = "stats:cache:hits"
	KeyMisses = "stats:cache:misses"
)

// Hit-ratio thresholds for health evaluation.
const (
	// RatioHealthy marks normal operation: most reads are served from
	// cache.
	RatioHealthy = 0.80

	// RatioWarning marks a cache that is barely helping; below it the
	// backing store carries most of the read load.
	RatioWarning = 0.50
)

// CacheStats is a point-in-time view of the shared counters.
type CacheStats struct {
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	LastUpdate time.Time `json:"last_update"`
	IsHealthy  bool      `json:"is_healthy"`
}

// HitRatio returns hits / (hits + misses), or 1 when no reads happened.
func (s *CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 1
	}
	return float64(s.Hits) / float64(total)
}

// NeedsAttention returns true when the hit ratio dropped below the
// warning threshold.
func (s *CacheStats) NeedsAttention() bool {
	return s.HitRatio() < RatioWarning
}

// UpdateHealth updates the IsHealthy field from the current counters.
func (s *CacheStats) UpdateHealth() {
	s.IsHealthy = s.HitRatio() >= RatioHealthy
}

// parseCounter turns a raw backend value into a counter value.
func parseCounter(raw []byte) int64 {
	if len(raw) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
