package clock

import "time"

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Monotonic reports elapsed time since a fixed origin, the way a display
// refresh callback reports its timestamp.
type Monotonic interface {
	Since() time.Duration
}

type processMonotonic struct {
	origin time.Time
}

// NewMonotonic returns a Monotonic anchored at the moment of the call.
func NewMonotonic() Monotonic {
	return processMonotonic{origin: time.Now()}
}

func (m processMonotonic) Since() time.Duration {
	return time.Since(m.origin)
}
