package utils

import (
	"context"
	"time"
)

// SleepResult represents the outcome of a context-aware sleep.
type SleepResult int

const (
	// SleepCompleted indicates the sleep duration elapsed.
	SleepCompleted SleepResult = iota
	// SleepCancelled indicates the context was done first.
	SleepCancelled
)

// ContextSleep waits for duration or until ctx is done, whichever happens first.
func ContextSleep(ctx context.Context, duration time.Duration) SleepResult {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return SleepCompleted
	case <-ctx.Done():
		return SleepCancelled
	}
}
