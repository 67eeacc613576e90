package job

import (
	"context"
	"errors"
	"time"

	"ticksched/internal/sched"
)

// SleepWork returns an async step that sleeps for ms milliseconds. If the task is
// cancelled first it returns the context error, and a later launch of the same
// step only sleeps for what was left.
func SleepWork(ms int64) sched.AsyncStep {
	remaining := time.Duration(ms) * time.Millisecond
	return func(ctx context.Context) (bool, error) {
		start := time.Now()
		select {
		case <-ctx.Done():
			remaining -= time.Since(start)
			if remaining < 0 {
				remaining = 0
			}
			return false, ctx.Err()
		case <-time.After(remaining):
			// If the time is up, the task is done.
			return true, nil
		}
	}
}

// Countdown returns a sync step that is done on its n-th call.
func Countdown(n int) sched.SyncStep {
	calls := 0
	return func() (bool, error) {
		calls++
		return calls >= n, nil
	}
}

// ErrInjected is returned by Fail.
var ErrInjected = errors.New("job: injected failure")

// Fail returns a sync step that faults on its first call.
func Fail() sched.SyncStep {
	return func() (bool, error) {
		return false, ErrInjected
	}
}
