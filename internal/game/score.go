package game

import "sync/atomic"

// Score is a per-player counter. It is the only mutable value reachable from a State.
type Score struct {
	v atomic.Int64
}

// Add atomically adds n to the score.
func (s *Score) Add(n int) {
	s.v.Add(int64(n))
}

func (s *Score) Value() int {
	return int(s.v.Load())
}
