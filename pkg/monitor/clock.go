package monitor

import "time"

// clockWrapper lets tests stamp a deterministic run start time instead of
// depending on the wall clock.
type clockWrapper interface {
	Now() time.Time
}

type realClock struct{}

func (*realClock) Now() time.Time { return time.Now() }
