package wal

import (
	"sync/atomic"
	"time"
)

// SystemClock reads the wall clock once and then advances using the monotonic
// reading, so later wall-clock adjustments do not move it.
type SystemClock struct {
	base time.Time
}

// NewSystemClock anchors a clock at the current time.
func NewSystemClock() *SystemClock {
	return &SystemClock{base: time.Now()}
}

// Nanos returns nanoseconds since the Unix epoch.
func (c *SystemClock) Nanos() int64 {
	return c.base.UnixNano() + time.Since(c.base).Nanoseconds()
}

// ManualClock is a clock whose time only moves when told to.
type ManualClock struct {
	nanos atomic.Int64
}

// NewManualClock creates a clock set to t.
func NewManualClock(t time.Time) *ManualClock {
	c := &ManualClock{}
	c.nanos.Store(t.UnixNano())
	return c
}

// Nanos returns the current manual time.
func (c *ManualClock) Nanos() int64 {
	return c.nanos.Load()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.nanos.Add(int64(d))
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.nanos.Store(t.UnixNano())
}
