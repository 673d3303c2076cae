package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient failure")

func fastRetrier(attempts int) *Retrier {
	return New(
		WithMaxAttempts(attempts),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(5*time.Millisecond),
		WithJitter(0),
	)
}

func TestSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetriesRetryableUntilSuccess(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errTransient)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExhaustedAttemptsReturnUnwrappedError(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(errTransient)
	})
	assert.Equal(t, 3, calls)
	assert.Equal(t, errTransient, err)
}

func TestPermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(errTransient)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, errTransient, err)
}

func TestUnmarkedErrorIsNotRetried(t *testing.T) {
	calls := 0
	plain := errors.New("plain failure")
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return plain
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, plain, err)
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := New(
		WithMaxAttempts(10),
		WithInitialDelay(50*time.Millisecond),
		WithJitter(0),
	).Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return Retryable(errTransient)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestOnRetryCallbackReceivesAttempts(t *testing.T) {
	var attempts []int
	err := Do(context.Background(), func(ctx context.Context) error {
		return Retryable(errTransient)
	},
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		}),
	)
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts, "no callback after the final attempt")
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsRetryable(Retryable(errTransient)))
	assert.False(t, IsRetryable(Permanent(errTransient)))
	assert.True(t, IsPermanent(Permanent(errTransient)))
	assert.False(t, IsPermanent(errTransient))
	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))
	assert.Equal(t, errTransient, errors.Unwrap(Retryable(errTransient)))
}

func TestDelayGrowsAndIsCapped(t *testing.T) {
	r := New(
		WithInitialDelay(10*time.Millisecond),
		WithMultiplier(2.0),
		WithMaxDelay(25*time.Millisecond),
		WithJitter(0),
	)
	assert.Equal(t, 10*time.Millisecond, r.delayFor(1))
	assert.Equal(t, 20*time.Millisecond, r.delayFor(2))
	assert.Equal(t, 25*time.Millisecond, r.delayFor(3), "capped at max delay")
}
