package retry

import (
	"context"
	"time"

	"github.com/vvka-141/graphload/pkg/graphload"
)

// TimerSleeper waits on a timer and returns early when the context is done.
type TimerSleeper struct{}

// Sleep blocks for d. It returns ctx.Err() if the context ends first.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
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

// Executor orchestrates retry attempts with backoff and error classification.
//
// WithOnRetry and WithSleeper return a NEW instance; the receiver is never
// modified, so one Executor can be shared across goroutines.
type Executor struct {
	classifier graphload.ErrorClassifier
	strategy   graphload.BackoffStrategy
	sleeper    graphload.Sleeper
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier graphload.ErrorClassifier, strategy graphload.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
		sleeper:    TimerSleeper{},
	}
}

// WithOnRetry returns a copy that calls callback before every retry.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithSleeper returns a copy that waits through s between attempts.
func (e *Executor) WithSleeper(s graphload.Sleeper) *Executor {
	clone := *e
	if s != nil {
		clone.sleeper = s
	}
	return &clone
}

// Execute runs operation, retrying transient failures.
// Returns the result of the last attempt (success or fatal error).
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	lastErr := operation(ctx)
	if lastErr == nil || !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		if err := e.sleeper.Sleep(ctx, delay); err != nil {
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
