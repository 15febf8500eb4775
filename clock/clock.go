// Package clock provides the injectable time source used for staleness
// checks and sliding-rate windows. Components never call time.Now directly
// so that tests can drive time deterministically.
package clock

import "time"

// Clock provides the current time with monotonic readings
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real system time
type SystemClock struct{}

// NewSystemClock creates a new monotonic system clock
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current time with monotonic clock reading
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
