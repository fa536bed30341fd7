package utils

import (
	"context"
	"math/rand"
	"time"
)

// RandomDuration returns a duration in [min, max). A non-positive range
// returns min (or zero when min is negative).
func RandomDuration(min, max time.Duration) time.Duration {
	if min < 0 {
		min = 0
	}
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// RandomDelay sleeps for a random duration between min and max, returning
// early if ctx is cancelled. Fixed delays are a detectable request cadence.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	d := RandomDuration(min, max)
	if d <= 0 {
		return nil
	}
	return SleepContext(ctx, d)
}

// SleepContext sleeps for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
