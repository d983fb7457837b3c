package session

import "time"

// Clock supplies the current time; the day is derived from it in the
// configured timezone.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant. Handy for tests and replays.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
