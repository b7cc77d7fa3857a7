package domain

import (
	"math"
	"math/bits"
	"time"
)

// Clock returns the current time. Ledger timestamps have one second resolution.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// Now returns the clock reading truncated to whole seconds.
func (c Clock) Now() time.Time {
	if c == nil {
		return SystemClock().Truncate(time.Second)
	}
	return c().UTC().Truncate(time.Second)
}

// FixedClock returns a clock stuck at t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// Timestamp is a ledger time in whole seconds since the Unix epoch.
type Timestamp uint64

// TimestampOf converts t, clamping instants before the epoch to zero.
func TimestampOf(t time.Time) Timestamp {
	if sec := t.Unix(); sec > 0 {
		return Timestamp(sec)
	}
	return 0
}

// Timestamp returns the clock reading as a Timestamp.
func (c Clock) Timestamp() Timestamp {
	return TimestampOf(c.Now())
}

// Add returns ts advanced by seconds and false if the result overflows.
func (ts Timestamp) Add(seconds uint64) (Timestamp, bool) {
	sum, carry := bits.Add64(uint64(ts), seconds, 0)
	return Timestamp(sum), carry == 0
}

// AddSaturating returns ts advanced by seconds, capped at the maximum value.
func (ts Timestamp) AddSaturating(seconds uint64) Timestamp {
	if sum, ok := ts.Add(seconds); ok {
		return sum
	}
	return Timestamp(math.MaxUint64)
}

// MaxTime is the latest instant a Timestamp converts to.
var MaxTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Time converts ts to a UTC time, clamped at MaxTime.
func (ts Timestamp) Time() time.Time {
	if uint64(ts) > uint64(MaxTime.Unix()) {
		return MaxTime
	}
	return time.Unix(int64(ts), 0).UTC()
}
