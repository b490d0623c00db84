package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant returned by a StepClock created with NewStepClock.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// StepClock is a deterministic wall clock for tests and golden traces.
//
// Each call to Now returns the previous instant plus the step, starting at
// the base time. Two clocks built the same way yield identical sequences.
//
// Thread-safety: all methods are safe for concurrent use.
type StepClock struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	n    int64
}

// NewStepClock creates a clock starting at Epoch with a one-second step.
func NewStepClock() *StepClock {
	return NewStepClockAt(Epoch, time.Second)
}

// NewStepClockAt creates a clock starting at base and advancing by step.
func NewStepClockAt(base time.Time, step time.Duration) *StepClock {
	return &StepClock{base: base.UTC(), step: step}
}

// Now returns the next instant. The first call returns the base time.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Calls returns how many times Now has been called.
func (c *StepClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock so the next Now returns the base time again.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
