// Package throttle implements the fixed-window budget that caps how many
// notifications are delivered per interval.
package throttle

import "time"

// Clock returns the current time
type Clock func() time.Time

// Option configures a Throttle
type Option func(*Throttle)

// WithClock replaces the wall clock, mostly for tests
func WithClock(clock Clock) Option {
	return func(t *Throttle) {
		if clock != nil {
			t.now = clock
		}
	}
}

// Throttle is a fixed-window counter. The window is reset lazily by the first
// call that finds it expired. It is not safe for concurrent use.
type Throttle struct {
	window   time.Duration
	capacity int

	remaining   int
	windowStart time.Time

	now Clock
}

// New returns a throttle with a full budget whose first window starts now
func New(window time.Duration, capacity int, opts ...Option) *Throttle {
	if capacity < 0 {
		capacity = 0
	}

	t := &Throttle{
		window:   window,
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.remaining = capacity
	t.windowStart = t.now()
	return t
}

// ShouldAllow reports whether one more notification may be delivered.
// The call that resets an expired window is allowed without spending budget.
func (t *Throttle) ShouldAllow() bool {
	now := t.now()

	if now.Sub(t.windowStart) > t.window {
		t.remaining = t.capacity
		t.windowStart = now
		return true
	}

	if t.remaining > 0 {
		t.remaining--
		return true
	}

	return false
}

// Remaining is the budget left in the current window
func (t *Throttle) Remaining() int {
	return t.remaining
}

// Capacity is the budget granted at every window reset
func (t *Throttle) Capacity() int {
	return t.capacity
}

// Window is the window length
func (t *Throttle) Window() time.Duration {
	return t.window
}
