package engine

import "sync/atomic"

// Clock is the logical clock that stamps reductions.
//
// Every event the engine reduces gets the next seq. The journal orders by it
// and views carry it, so a replay reproduces the same numbering with no
// dependence on wall time.
//
// Thread-safety: Clock is safe for concurrent use, though only the Run
// goroutine calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start; the next seq is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out, or the start position.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
