package engine

import "sync/atomic"

// Clock is the monotonic logical clock that numbers logged events.
//
// Every appended event is stamped with a strictly increasing seq from this
// clock. Ordering in the log and on replay uses seq, never wall time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// In practice only the recorder calls Next, under the registry lock.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used after replay to resume from the last logged event.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
