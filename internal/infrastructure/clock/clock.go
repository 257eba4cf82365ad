// Package clock provides the production time source.
package clock

import "time"

// SystemClock implements usecase.Clock using the wall clock.
type SystemClock struct{}

// New creates a SystemClock.
func New() SystemClock {
	return SystemClock{}
}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
