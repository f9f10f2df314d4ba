package aggregation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestExecuteWithRetries_WhenFirstAttemptSucceeds_ThenCallsOnce(t *testing.T) {
	// Arrange
	executor := NewRetryExecutor(3, time.Hour, logging.NewNoOpLogger())
	calls := 0

	// Act
	err := executor.ExecuteWithRetries(context.Background(), "ok", func(context.Context) error {
		calls++
		return nil
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetries_WhenAlwaysFailing_ThenReturnsLastErrorAfterMaxAttempts(t *testing.T) {
	// Arrange
	core, logs := observer.New(zapcore.WarnLevel)
	executor := NewRetryExecutor(3, time.Millisecond, logging.Wrap(zap.New(core)))
	calls := 0
	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}

	// Act
	err := executor.ExecuteWithRetries(context.Background(), "flaky", func(context.Context) error {
		e := errs[calls]
		calls++
		return e
	})

	// Assert
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, errs[2])
	var runnerErr *RunnerError
	require.ErrorAs(t, err, &runnerErr)
	assert.Equal(t, "flaky", runnerErr.Runner)
	assert.Equal(t, 3, runnerErr.Attempts)
	assert.Equal(t, 2, logs.FilterMessage("runner attempt failed, retrying").Len(), "the final failure is not announced as a retry")
}

func TestExecuteWithRetries_WhenDelayConfigured_ThenWaitsFixedDelayBetweenAttempts(t *testing.T) {
	// Arrange
	const delay = 20 * time.Millisecond
	executor := NewRetryExecutor(3, delay, logging.NewNoOpLogger())
	var stamps []time.Time

	// Act
	_ = executor.ExecuteWithRetries(context.Background(), "timed", func(context.Context) error {
		stamps = append(stamps, time.Now())
		return errors.New("fail")
	})

	// Assert
	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), delay)
	}
}

func TestExecuteWithRetries_WhenContextCancelledDuringWait_ThenStopsRetrying(t *testing.T) {
	// Arrange
	executor := NewRetryExecutor(5, time.Hour, logging.NewNoOpLogger())
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	// Act
	done := make(chan error, 1)
	go func() {
		done <- executor.ExecuteWithRetries(ctx, "stuck", func(context.Context) error {
			calls++
			return errors.New("fail")
		})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	// Assert
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("retry executor did not stop after cancellation")
	}
}

func TestNewRetryExecutor_WhenAttemptsBelowOne_ThenRunsOnce(t *testing.T) {
	// Arrange
	executor := NewRetryExecutor(0, time.Millisecond, logging.NewNoOpLogger())
	calls := 0

	// Act
	err := executor.ExecuteWithRetries(context.Background(), "once", func(context.Context) error {
		calls++
		return errors.New("fail")
	})

	// Assert
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
