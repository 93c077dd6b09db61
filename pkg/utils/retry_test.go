package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDelay(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts}
}

func TestRetryWithResult_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), noDelay(10), func(attempt int) (string, error) {
		calls++
		if attempt < 4 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 4, calls)
}

func TestRetryWithResult_ExhaustsBudget(t *testing.T) {
	var seen []int
	cfg := noDelay(10)
	cfg.OnRetry = func(attempt int, err error) { seen = append(seen, attempt) }

	_, err := RetryWithResult(context.Background(), cfg, func(int) (int, error) {
		return 0, errors.New("always")
	})
	require.EqualError(t, err, "always")
	assert.Len(t, seen, 10)
	assert.Equal(t, 10, seen[len(seen)-1])
}

func TestRetryWithResult_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := RetryConfig{MaxAttempts: 10, InitialDelay: time.Hour}

	_, err := RetryWithResult(ctx, cfg, func(int) (int, error) {
		calls++
		cancel()
		return 0, errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetry_ZeroAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{}, func(int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestNextDelay_Capped(t *testing.T) {
	cfg := RetryConfig{BackoffFactor: 2, MaxDelay: 300 * time.Millisecond}
	assert.Equal(t, 200*time.Millisecond, nextDelay(100*time.Millisecond, cfg))
	assert.Equal(t, 300*time.Millisecond, nextDelay(200*time.Millisecond, cfg))
}
