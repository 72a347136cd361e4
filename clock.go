package evtrc

import (
	"sync/atomic"
	"time"
)

// Clock produces monotonic timestamps, expressed as the elapsed duration
// since a fixed, arbitrary epoch. Timestamps from one clock are comparable
// with each other but carry no wall-clock meaning.
type Clock func() time.Duration

var processEpoch = time.Now()

func monotonicClock() time.Duration {
	return time.Since(processEpoch)
}

var clockVal atomic.Value // Clock

func init() {
	clockVal.Store(Clock(monotonicClock))
}

// SetClock replaces the package clock, which stamps every recorded event.
// Passing nil restores the default monotonic clock. Intended as a test
// seam; swapping clocks while events are being recorded produces
// timestamps from both clocks.
func SetClock(c Clock) {
	if c == nil {
		c = monotonicClock
	}
	clockVal.Store(c)
}

func now() time.Duration {
	return clockVal.Load().(Clock)()
}
