package metrics

import "sync/atomic"

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	Computations int64 `json:"computations"`
	Failures     int64 `json:"failures"`
	Entries      int   `json:"entries"`
}

// IsZero reports whether no cache traffic was recorded.
func (s CacheStats) IsZero() bool {
	return s.Hits == 0 && s.Misses == 0 && s.Computations == 0 && s.Failures == 0
}

// HitRatio returns hits / (hits + misses), or 0 without traffic.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// CacheCounters accumulates cache traffic from concurrent callers.
type CacheCounters struct {
	hits         atomic.Int64
	misses       atomic.Int64
	computations atomic.Int64
	failures     atomic.Int64
}

func (c *CacheCounters) Hit()     { c.hits.Add(1) }
func (c *CacheCounters) Miss()    { c.misses.Add(1) }
func (c *CacheCounters) Compute() { c.computations.Add(1) }
func (c *CacheCounters) Fail()    { c.failures.Add(1) }

// Snapshot copies the current counter values.
func (c *CacheCounters) Snapshot() CacheStats {
	return CacheStats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Computations: c.computations.Load(),
		Failures:     c.failures.Load(),
	}
}
