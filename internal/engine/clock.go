package engine

import "time"

// Clock supplies the current time. Production code uses RealClock; tests
// freeze and advance a FrozenClock to exercise time-dependent logic.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FrozenClock returns a fixed instant until advanced.
type FrozenClock struct {
	Current time.Time
}

func NewFrozenClock(t time.Time) *FrozenClock { return &FrozenClock{Current: t} }

func (c *FrozenClock) Now() time.Time { return c.Current }

// Advance moves the frozen clock forward by d.
func (c *FrozenClock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }

// Set moves the frozen clock to t.
func (c *FrozenClock) Set(t time.Time) { c.Current = t }
