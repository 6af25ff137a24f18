package crawler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds live counters for a crawl. Counters may be read concurrently
// while the run is in progress.
type Stats struct {
	Seeds int

	CellsVisited    atomic.Int64
	OracleCalls     atomic.Int64
	OracleErrors    atomic.Int64
	TransportErrors atomic.Int64
	ParseErrors     atomic.Int64
	RateLimits      atomic.Int64
	Retries         atomic.Int64
	SchemaErrors    atomic.Int64
	RecordsFound    atomic.Int64
	RecordsAccepted atomic.Int64
	PointsEnqueued  atomic.Int64
	PointsDiscarded atomic.Int64
	Frontier        atomic.Int64

	state atomic.Int32

	mu         sync.Mutex
	startedAt  time.Time
	finishedAt time.Time
	stopReason StopReason
	aborted    bool
}

func (s *Stats) State() State {
	return State(s.state.Load())
}

func (s *Stats) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Stats) StopReason() StopReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopReason
}

// Aborted reports whether the run ended with a CrawlAborted condition.
func (s *Stats) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Elapsed is the wall time of the run so far, or of the whole run once finished.
func (s *Stats) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	if s.finishedAt.IsZero() {
		return time.Since(s.startedAt)
	}
	return s.finishedAt.Sub(s.startedAt)
}

func (s *Stats) start() {
	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()
}

func (s *Stats) finish(reason StopReason, aborted bool) {
	s.mu.Lock()
	s.finishedAt = time.Now()
	s.stopReason = reason
	s.aborted = aborted
	s.mu.Unlock()
	s.setState(StateDone)
}
