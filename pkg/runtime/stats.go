package runtime

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats holds statement execution counters for a DB.
type Stats struct {
	queries  atomic.Int64
	execs    atomic.Int64
	slow     atomic.Int64
	errors   atomic.Int64
	duration atomic.Int64 // nanoseconds
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Queries  int64         `json:"queries"`
	Execs    int64         `json:"execs"`
	Slow     int64         `json:"slow"`
	Errors   int64         `json:"errors"`
	Duration time.Duration `json:"duration"`
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Queries:  s.queries.Load(),
		Execs:    s.execs.Load(),
		Slow:     s.slow.Load(),
		Errors:   s.errors.Load(),
		Duration: time.Duration(s.duration.Load()),
	}
}

// Reset sets every counter back to zero.
func (s *Stats) Reset() {
	s.queries.Store(0)
	s.execs.Store(0)
	s.slow.Store(0)
	s.errors.Store(0)
	s.duration.Store(0)
}

func (s *Stats) record(isQuery bool, d time.Duration, slow bool, err error) {
	if isQuery {
		s.queries.Add(1)
	} else {
		s.execs.Add(1)
	}
	s.duration.Add(int64(d))
	if slow {
		s.slow.Add(1)
	}
	if err != nil {
		s.errors.Add(1)
	}
}

// Total returns the number of statements executed.
func (s StatsSnapshot) Total() int64 {
	return s.Queries + s.Execs
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d duration=%s slow=%d errors=%d",
		s.Queries, s.Execs, s.Duration, s.Slow, s.Errors)
}
