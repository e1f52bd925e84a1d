package tick

import "time"

// Accumulator counts how many whole intervals have elapsed across a series
// of Advance calls, carrying the remainder.
type Accumulator struct {
	acc      time.Duration
	interval time.Duration
}

// NewAccumulator starts empty: the first interval fires after a full interval.
func NewAccumulator(interval time.Duration) Accumulator {
	return Accumulator{interval: interval}
}

// NewReadyAccumulator starts primed: the first Advance yields at least one interval.
func NewReadyAccumulator(interval time.Duration) Accumulator {
	return Accumulator{acc: interval, interval: interval}
}

// Advance adds d and returns the number of whole intervals now due.
// A non-positive interval never fires.
func (a *Accumulator) Advance(d time.Duration) int {
	if a.interval <= 0 {
		return 0
	}
	if d > 0 {
		a.acc += d
	}
	n := a.acc / a.interval
	a.acc %= a.interval
	return int(n)
}

func (a *Accumulator) Interval() time.Duration { return a.interval }

// Carried is the remainder below one interval.
func (a *Accumulator) Carried() time.Duration { return a.acc }
