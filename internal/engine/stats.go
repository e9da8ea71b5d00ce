package engine

import "sync/atomic"

// Stats counts engine activity.
//
// Dispatched doubles as the sequence number logged with each dispatch, so
// log lines of one engine can be ordered without wall-clock time.
//
// Thread-safety: Stats is safe for concurrent use (atomic operations).
type Stats struct {
	dispatched atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Dispatched int64 // Statements sent to the surface
	Skipped    int64 // Queries answered without a round trip (limit 0)
	Failed     int64 // Dispatches that returned an error
}

// Snapshot reads all counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Dispatched: s.dispatched.Load(),
		Skipped:    s.skipped.Load(),
		Failed:     s.failed.Load(),
	}
}
