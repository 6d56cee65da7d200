// Package retry retries object-storage calls that fail transiently, with
// exponential backoff between attempts.
//
// Loader submissions and status checks are deliberately NOT retried through
// this package: a failed status check aborts polling.
//
// # Example Usage
//
//	executor := retry.NewExecutor(
//	    retry.NewTransientErrorClassifier(),
//	    retry.NewExponentialBackoff(3),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return store.put(ctx, key, data)
//	})
//
// Executor instances are safe for concurrent use. WithOnRetry and WithSleeper
// return copies, so each caller can attach its own callback.
package retry
