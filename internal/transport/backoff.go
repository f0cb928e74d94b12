package transport

import (
	"context"
	"time"
)

const (
	DefaultMinBackoff = 500 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second
)

// calculateBackoff returns the wait before the next dial after failures
// consecutive failed attempts. The delay doubles from base and stops at
// limit. A non-positive base disables waiting altogether.
func calculateBackoff(failures int, base, limit time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if failures < 0 {
		failures = 0
	}
	if limit > 0 && base >= limit {
		return limit
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if limit > 0 && d >= limit {
			return limit
		}
		if d <= 0 {
			return limit
		}
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
