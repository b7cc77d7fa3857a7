package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_TruncatesToSeconds(t *testing.T) {
	c := FixedClock(time.Unix(1800, 999_000_000))
	assert.Equal(t, time.Unix(1800, 0).UTC(), c.Now())
	assert.Equal(t, Timestamp(1800), c.Timestamp())
}

func TestClock_NilUsesSystemTime(t *testing.T) {
	var c Clock
	assert.WithinDuration(t, time.Now(), c.Now(), 2*time.Second)
}

func TestTimestampOf_ClampsBeforeEpoch(t *testing.T) {
	assert.Equal(t, Timestamp(0), TimestampOf(time.Unix(-10, 0)))
}

func TestTimestamp_Add(t *testing.T) {
	ts, ok := Timestamp(1800).Add(3600)
	assert.True(t, ok)
	assert.Equal(t, Timestamp(5400), ts)

	_, ok = Timestamp(math.MaxUint64).Add(1)
	assert.False(t, ok)
	assert.Equal(t, Timestamp(math.MaxUint64), Timestamp(math.MaxUint64-1).AddSaturating(5))
}

func TestTimestamp_Time(t *testing.T) {
	assert.Equal(t, time.Unix(5400, 0).UTC(), Timestamp(5400).Time())
	assert.Equal(t, MaxTime, Timestamp(math.MaxUint64).Time())
}
