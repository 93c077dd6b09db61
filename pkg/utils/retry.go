package utils

import (
	"context"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// OnRetry, if set, is called after every failed attempt (1-based).
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns the default retry configuration: ten attempts
// with a short capped backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   10,
		InitialDelay:  250 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Retry executes a function with exponential backoff retry.
func Retry(ctx context.Context, cfg RetryConfig, fn func(attempt int) error) error {
	_, err := RetryWithResult(ctx, cfg, func(attempt int) (struct{}, error) {
		return struct{}{}, fn(attempt)
	})
	return err
}

// RetryWithResult executes a function with exponential backoff retry and
// returns the first successful result. fn receives the 1-based attempt
// number. At most cfg.MaxAttempts calls are made; a cancelled context stops
// the loop between attempts.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func(attempt int) (T, error)) (T, error) {
	var lastErr error
	var zero T
	delay := cfg.InitialDelay

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		// Don't sleep after the last attempt
		if attempt < attempts && delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
			delay = nextDelay(delay, cfg)
		}
	}

	return zero, lastErr
}

func nextDelay(delay time.Duration, cfg RetryConfig) time.Duration {
	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay = time.Duration(float64(delay) * factor)
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
