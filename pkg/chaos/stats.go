package chaos

import "sync/atomic"

// Stats are mutated on every Apply and read back as a point-in-time
// snapshot; all fields are updated with atomic operations so Apply never
// needs to hold a lock just to bump a counter.
type Stats struct {
	requestsProcessed   atomic.Int64
	errorsInjected      atomic.Int64
	totalLatencyAddedMs atomic.Int64
}

// Snapshot is the observable, immutable view of Stats returned to callers.
type Snapshot struct {
	RequestsProcessed   int64
	ErrorsInjected      int64
	TotalLatencyAddedMs int64
	AverageLatencyMs    float64
}

func (s *Stats) recordLatency(ms int) {
	s.requestsProcessed.Add(1)
	s.totalLatencyAddedMs.Add(int64(ms))
}

func (s *Stats) recordPassthrough() {
	s.requestsProcessed.Add(1)
}

func (s *Stats) recordError() {
	s.errorsInjected.Add(1)
}

// Snapshot returns the current counters. AverageLatencyMs is 0 when no
// requests have been processed yet.
func (s *Stats) Snapshot() Snapshot {
	processed := s.requestsProcessed.Load()
	total := s.totalLatencyAddedMs.Load()
	avg := 0.0
	if processed > 0 {
		avg = float64(total) / float64(processed)
	}
	return Snapshot{
		RequestsProcessed:   processed,
		ErrorsInjected:      s.errorsInjected.Load(),
		TotalLatencyAddedMs: total,
		AverageLatencyMs:    avg,
	}
}
