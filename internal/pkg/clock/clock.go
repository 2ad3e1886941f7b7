package clock

import "time"

// Clocker reports the current time.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system clock in UTC.
type TimeClocker struct{}

func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current time in UTC so stored expiries compare cleanly.
func (*TimeClocker) Now() time.Time {
	return time.Now().UTC()
}
