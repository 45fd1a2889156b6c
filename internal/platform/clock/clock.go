package clock

import "time"

// Clock abstracts wall-clock time so services stay deterministic in tests.
// Durations derived from it survive suspended or backgrounded execution,
// unlike a tick counter.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
