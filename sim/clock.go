// Package sim provides host-side stand-ins for the lift hardware: a
// controllable clock, a step backend, GPIO and ADC drivers and a shaft model
// that turns step pulses into car position and limit switch state.
package sim

import (
	"time"
)

// Clock is a manually advanced microsecond clock for deterministic tests
type Clock struct {
	now uint32
}

// NewClock returns a clock starting at start microseconds
func NewClock(start uint32) *Clock {
	return &Clock{now: start}
}

// Micros returns the current simulated time
func (c *Clock) Micros() uint32 {
	return c.now
}

// Advance moves time forward by us microseconds
func (c *Clock) Advance(us uint32) {
	c.now += us
}

// Set jumps to an absolute time (may wrap)
func (c *Clock) Set(us uint32) {
	c.now = us
}

// WallClock follows real elapsed time since it was created
type WallClock struct {
	start time.Time
}

// NewWallClock starts a real-time clock at zero
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// Micros returns microseconds since creation, truncated to 32 bits
func (c *WallClock) Micros() uint32 {
	return uint32(time.Since(c.start).Microseconds())
}
