package clock

import "time"

// Clock abstracts time so evaluation passes can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in the process's local zone.
type System struct{}

func New() System {
	return System{}
}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}
