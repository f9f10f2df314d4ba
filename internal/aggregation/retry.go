package aggregation

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dhima/filplus-aggregator/internal/logging"
	"go.uber.org/zap"
)

// DefaultRetryDelay is the fixed wait between attempts.
const DefaultRetryDelay = 90 * time.Second

// RetryExecutor runs an operation up to maxAttempts times with a fixed delay
// between attempts. It does not make the operation idempotent; runners must.
type RetryExecutor struct {
	maxAttempts int
	delay       time.Duration
	logger      logging.Logger
}

// NewRetryExecutor builds an executor. maxAttempts below 1 is treated as 1.
func NewRetryExecutor(maxAttempts int, delay time.Duration, logger logging.Logger) *RetryExecutor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryExecutor{maxAttempts: maxAttempts, delay: delay, logger: logger}
}

// ExecuteWithRetries calls fn until it succeeds or maxAttempts consecutive
// attempts have failed, in which case the last error is returned wrapped in a
// *RunnerError. Context cancellation during the wait between attempts stops
// the retries.
func (e *RetryExecutor) ExecuteWithRetries(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := fn(ctx)
		if err != nil && attempt < e.maxAttempts {
			e.logger.Warn("runner attempt failed, retrying",
				zap.String("runner", name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", e.maxAttempts),
				zap.Duration("retry_in", e.delay),
				zap.Error(err),
			)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(e.delay)),
		backoff.WithMaxTries(uint(e.maxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		return &RunnerError{Runner: name, Attempts: attempt, Err: err}
	}
	return nil
}
