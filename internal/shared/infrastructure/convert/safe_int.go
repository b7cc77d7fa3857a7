// Package convert moves router timestamps and durations, which are unsigned,
// in and out of signed BIGINT columns.
package convert

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned when a value does not fit the target type.
var ErrOutOfRange = errors.New("integer out of range")

// Uint64ToInt64 fails for values above math.MaxInt64.
func Uint64ToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d exceeds int64", ErrOutOfRange, v)
	}
	return int64(v), nil
}

// Int64ToUint64 fails for negative values, which only a corrupt row holds.
func Int64ToUint64(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrOutOfRange, v)
	}
	return uint64(v), nil
}

// IntToInt32Clamped saturates v to the int32 range.
func IntToInt32Clamped(v int) int32 {
	return int32(max(math.MinInt32, min(v, math.MaxInt32)))
}
