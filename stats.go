package ogimage

import "sync/atomic"

// engineStats holds the engine's internal counters.
type engineStats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	renders   atomic.Int64
	coalesced atomic.Int64
}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	// Hits counts cache lookups answered without rendering.
	Hits int64

	// Misses counts lookups that reached the single-flight coordinator.
	Misses int64

	// Renders counts render pipeline invocations (successful or not).
	Renders int64

	// Coalesced counts outcomes that were shared between concurrent
	// callers instead of rendered per caller.
	Coalesced int64
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Hits:      e.stats.hits.Load(),
		Misses:    e.stats.misses.Load(),
		Renders:   e.stats.renders.Load(),
		Coalesced: e.stats.coalesced.Load(),
	}
}
