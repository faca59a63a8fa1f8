package domain

import "time"

// Clock abstracts "now" so every time-dependent invariant is deterministic
// under test. All timestamps in the domain are UTC.
type Clock interface {
	Now() time.Time
}

// UTCClock is the production clock.
type UTCClock struct{}

func (UTCClock) Now() time.Time { return time.Now().UTC() }
