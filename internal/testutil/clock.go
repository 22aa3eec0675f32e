// Package testutil holds deterministic stand-ins shared by package tests.
package testutil

import (
	"sync"
	"time"
)

// FakeClock is a manually advanced wall clock.
//
// Components that time work (interceptors, toasts) accept a func() time.Time;
// pass clock.Now to make durations and timestamps reproducible.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Epoch is the default starting instant of a FakeClock.
var Epoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// NewFakeClock creates a clock at start. A zero start uses Epoch.
func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = Epoch
	}
	return &FakeClock{now: start}
}

// Now returns the current fake instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new instant.
func (c *FakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set jumps to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Stepper returns a func() time.Time that advances by step after every call.
// Useful when the code under test reads the clock once at start and once at
// settle: the measured duration is exactly step.
func (c *FakeClock) Stepper(step time.Duration) func() time.Time {
	return func() time.Time {
		c.mu.Lock()
		defer c.mu.Unlock()
		now := c.now
		c.now = c.now.Add(step)
		return now
	}
}
