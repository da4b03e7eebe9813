package officesim

import "time"

// FrameClock produces the elapsed time between successive ticks
type FrameClock struct {
	now  func() time.Time
	last time.Time
}

// NewFrameClock creates a frame clock backed by the wall clock
func NewFrameClock() *FrameClock {
	return NewFrameClockWith(time.Now)
}

// NewFrameClockWith creates a frame clock reading time from now.
// The first delta is measured from construction.
func NewFrameClockWith(now func() time.Time) *FrameClock {
	return &FrameClock{now: now, last: now()}
}

// NextDelta returns the seconds elapsed since the previous call.
// A host clock that steps backwards yields 0 and keeps the later reading.
func (c *FrameClock) NextDelta() float64 {
	t := c.now()
	if !t.After(c.last) {
		return 0
	}
	dt := t.Sub(c.last).Seconds()
	c.last = t
	return dt
}

// Reset re-anchors the clock so the next delta is measured from now
func (c *FrameClock) Reset() {
	c.last = c.now()
}
