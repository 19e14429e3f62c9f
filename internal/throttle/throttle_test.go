package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestShouldAllowWithinWindow(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		calls    int
		expected []bool
	}{
		{"capacity two", 2, 3, []bool{true, true, false}},
		{"capacity five", 5, 7, []bool{true, true, true, true, true, false, false}},
		{"capacity one", 1, 2, []bool{true, false}},
		{"capacity zero", 0, 2, []bool{false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			th := New(5*time.Second, tt.capacity, WithClock(clock.Now))

			got := make([]bool, 0, tt.calls)
			for i := 0; i < tt.calls; i++ {
				got = append(got, th.ShouldAllow())
				clock.Advance(time.Second)
			}

			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestShouldAllowAfterWindowElapsed(t *testing.T) {
	clock := newFakeClock()
	th := New(5*time.Second, 2, WithClock(clock.Now))

	assert.True(t, th.ShouldAllow())
	assert.True(t, th.ShouldAllow())
	assert.False(t, th.ShouldAllow())
	assert.Equal(t, 0, th.Remaining())

	clock.Advance(6 * time.Second)

	assert.True(t, th.ShouldAllow())
	assert.Equal(t, 2, th.Remaining(), "the resetting call does not spend budget")

	assert.True(t, th.ShouldAllow())
	assert.True(t, th.ShouldAllow())
	assert.False(t, th.ShouldAllow())
}

func TestWindowBoundaryIsExclusive(t *testing.T) {
	clock := newFakeClock()
	th := New(5*time.Second, 1, WithClock(clock.Now))

	assert.True(t, th.ShouldAllow())

	clock.Advance(5 * time.Second)
	assert.False(t, th.ShouldAllow(), "elapsed equal to the window does not reset")

	clock.Advance(time.Nanosecond)
	assert.True(t, th.ShouldAllow())
}

func TestZeroCapacityStillAllowsResetCall(t *testing.T) {
	clock := newFakeClock()
	th := New(time.Second, 0, WithClock(clock.Now))

	assert.False(t, th.ShouldAllow())

	clock.Advance(2 * time.Second)
	assert.True(t, th.ShouldAllow())
	assert.False(t, th.ShouldAllow())
}

func TestRemainingNeverNegative(t *testing.T) {
	clock := newFakeClock()
	th := New(time.Minute, 3, WithClock(clock.Now))

	for i := 0; i < 10; i++ {
		th.ShouldAllow()
		assert.GreaterOrEqual(t, th.Remaining(), 0)
		assert.LessOrEqual(t, th.Remaining(), th.Capacity())
	}
	assert.Equal(t, 0, th.Remaining())
}

func TestNewClampsNegativeCapacity(t *testing.T) {
	th := New(time.Second, -3)

	assert.Equal(t, 0, th.Capacity())
	assert.Equal(t, time.Second, th.Window())
}
