package hold

import "time"

// Clock is the time source used for all waits.
// Tests substitute a fake that advances instantly and records sleeps.
type Clock interface {
	// Now returns the current time, including a monotonic reading.
	Now() time.Time

	// Sleep blocks for d.
	Sleep(d time.Duration)
}

// RealClock is the Clock backed by the time package.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time { return time.Now() }

// Sleep calls time.Sleep.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }
