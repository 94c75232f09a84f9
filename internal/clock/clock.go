package clock

import (
	"fmt"
	"time"
)

// Clock is a stopwatch that accumulates active time across start/pause
// cycles. It is a value type: every transition returns the new clock and the
// receiver is left untouched.
type Clock struct {
	running     bool
	start       time.Time
	accumulated time.Duration
}

// New returns a stopped clock with nothing accumulated.
func New() Clock {
	return Clock{}
}

// Start resumes counting from the current accumulation. Starting a running
// clock is a no-op.
func (c Clock) Start(now time.Time) Clock {
	if c.running {
		return c
	}
	c.start = now.Add(-c.accumulated)
	c.running = true
	return c
}

// Pause freezes the accumulation at now. Pausing a stopped clock is a no-op.
func (c Clock) Pause(now time.Time) Clock {
	if !c.running {
		return c
	}
	c.accumulated = c.Elapsed(now)
	c.running = false
	return c
}

// Reset stops the clock and clears the accumulation.
func (c Clock) Reset() Clock {
	return Clock{}
}

// Toggle pauses a running clock and starts a stopped one.
func (c Clock) Toggle(now time.Time) Clock {
	if c.running {
		return c.Pause(now)
	}
	return c.Start(now)
}

func (c Clock) Running() bool {
	return c.running
}

// Elapsed returns the active time as of now.
func (c Clock) Elapsed(now time.Time) time.Duration {
	if !c.running {
		return c.accumulated
	}
	d := now.Sub(c.start)
	if d < 0 {
		return 0
	}
	return d
}

// Seconds returns Elapsed truncated to whole seconds.
func (c Clock) Seconds(now time.Time) int64 {
	return int64(c.Elapsed(now) / time.Second)
}

// Format renders d as HH:MM:SS. Hours are not wrapped at 24.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return FormatSeconds(int64(d / time.Second))
}

// FormatSeconds renders a number of seconds as HH:MM:SS.
func FormatSeconds(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
