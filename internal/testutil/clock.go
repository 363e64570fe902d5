package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is the date DeterministicClock starts at.
var DefaultEpoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// DeterministicClock provides a thread-safe controllable wall clock for tests.
//
// Now returns the same instant until Advance moves it forward, so
// createdAt dates in scenario snapshots never depend on when tests run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
}

// NewDeterministicClock creates a clock fixed at start. A zero start uses
// DefaultEpoch.
func NewDeterministicClock(start time.Time) *DeterministicClock {
	if start.IsZero() {
		start = DefaultEpoch
	}
	return &DeterministicClock{start: start, now: start}
}

// Now returns the current instant.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *DeterministicClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Reset moves the clock back to its start.
//
// Used for test reuse. After Reset(), Now() returns the start instant again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
