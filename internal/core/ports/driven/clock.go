package driven

import "time"

// Clock abstracts time for the sync gate so debounce timing is testable
// with a fake clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
