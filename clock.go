package edition

import "time"

// FrameCallback receives the clock time, in milliseconds, of the frame it was
// scheduled for.
type FrameCallback func(now float64)

// Clock is the time source animations and draw routines read. Now is in
// milliseconds. RequestFrame schedules fn to run once, at the next frame.
type Clock interface {
	Now() float64
	RequestFrame(fn FrameCallback)
}

// RealClock follows wall time. Scheduled callbacks run when the host calls
// Flush, once per displayed frame.
type RealClock struct {
	origin  time.Time
	pending []FrameCallback
}

// NewRealClock returns a RealClock whose zero is now.
func NewRealClock() *RealClock {
	return &RealClock{origin: time.Now()}
}

// Now returns the milliseconds elapsed since the clock was created.
func (c *RealClock) Now() float64 {
	return float64(time.Since(c.origin)) / float64(time.Millisecond)
}

// RequestFrame queues fn for the next Flush.
func (c *RealClock) RequestFrame(fn FrameCallback) {
	c.pending = append(c.pending, fn)
}

// Flush runs the queued callbacks. Callbacks scheduled while flushing run on
// the next Flush.
func (c *RealClock) Flush() {
	flushCallbacks(&c.pending, c.Now())
}

// VirtualClock only moves when it is told to. The capture loop advances it by
// one frame duration per captured frame, so recorded motion does not depend on
// how long a frame took to render and encode.
type VirtualClock struct {
	now     float64
	pending []FrameCallback
}

// Now returns the virtual time in milliseconds.
func (c *VirtualClock) Now() float64 { return c.now }

// Set moves the clock to t without running callbacks.
func (c *VirtualClock) Set(t float64) { c.now = t }

// RequestFrame queues fn until the clock next advances or flushes.
func (c *VirtualClock) RequestFrame(fn FrameCallback) {
	c.pending = append(c.pending, fn)
}

// Advance moves the clock forward by d milliseconds and runs the queued
// callbacks with the new time.
func (c *VirtualClock) Advance(d float64) {
	c.now += d
	c.Flush()
}

// Flush runs the queued callbacks with the current time.
func (c *VirtualClock) Flush() {
	flushCallbacks(&c.pending, c.now)
}

// Pending reports how many callbacks are queued.
func (c *VirtualClock) Pending() int { return len(c.pending) }

// SwitchClock is the Clock handed to the rest of the program. It delegates to
// a RealClock until a recording hijacks it, then to a VirtualClock until the
// recording restores it.
type SwitchClock struct {
	Real     *RealClock
	Virtual  *VirtualClock
	hijacked bool
}

// NewSwitchClock returns a SwitchClock in real-time mode.
func NewSwitchClock() *SwitchClock {
	return &SwitchClock{Real: NewRealClock(), Virtual: &VirtualClock{}}
}

// Now returns the time of whichever clock is active.
func (c *SwitchClock) Now() float64 {
	if c.hijacked {
		return c.Virtual.Now()
	}
	return c.Real.Now()
}

// RequestFrame schedules fn on whichever clock is active.
func (c *SwitchClock) RequestFrame(fn FrameCallback) {
	if c.hijacked {
		c.Virtual.RequestFrame(fn)
		return
	}
	c.Real.RequestFrame(fn)
}

// Hijacked reports whether virtual time is active.
func (c *SwitchClock) Hijacked() bool { return c.hijacked }

// Hijack switches to virtual time starting at start. Callbacks still waiting
// on the real clock move over and run at the next virtual flush.
func (c *SwitchClock) Hijack(start float64) {
	c.Virtual.Set(start)
	c.Virtual.pending = append(c.Virtual.pending, c.Real.pending...)
	c.Real.pending = nil
	c.hijacked = true
}

// Restore switches back to real time. Callbacks still waiting on the virtual
// clock move over to the real one. Restoring a clock that is not hijacked has
// no effect.
func (c *SwitchClock) Restore() {
	if !c.hijacked {
		return
	}
	c.Real.pending = append(c.Real.pending, c.Virtual.pending...)
	c.Virtual.pending = nil
	c.hijacked = false
}

// Flush runs the real clock's callbacks while in real-time mode. Under virtual
// time the recorder drives flushing, so Flush does nothing.
func (c *SwitchClock) Flush() {
	if !c.hijacked {
		c.Real.Flush()
	}
}

func flushCallbacks(pending *[]FrameCallback, now float64) {
	if len(*pending) == 0 {
		return
	}
	cbs := *pending
	*pending = nil
	for _, fn := range cbs {
		fn(now)
	}
}
