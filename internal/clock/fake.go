package clock

import "time"

// FakeClock is a manually advanced Clock for tests that exercise
// promo expiry and payroll week boundaries.
type FakeClock struct {
	now time.Time
}

// NewFakeClock pins the clock at t, normalized to UTC like every
// timestamp the engine stores.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
