package utils

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// retryableError marks a failure worth another attempt after a back-off
// computed from base.
type retryableError struct {
	err  error
	base time.Duration
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable wraps err so that RetryConfig.Do tries again, sleeping
// base·2^(attempt-1) plus jitter between attempts. Errors not wrapped
// with Retryable end the retry loop immediately.
func Retryable(err error, base time.Duration) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err, base: base}
}

// IsRetryable reports whether err was marked by Retryable.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	MaxJitter   time.Duration
	Logger      *Logger

	// Sleep is used for back-off waits. Nil means SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do executes fn with exponential back-off retry logic. Only errors
// wrapped with Retryable are retried; the last error is returned once
// MaxAttempts is exhausted.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var re *retryableError
		if !errors.As(lastErr, &re) {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}

		if attempt < attempts {
			delay := r.backoff(re.base, attempt)
			if r.Logger != nil {
				r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v, retrying in %v",
					operationName, attempt, attempts, lastErr, delay.Round(time.Millisecond))
			}
			if err := sleep(ctx, delay); err != nil {
				return lastErr
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, lastErr)
}

func (r *RetryConfig) backoff(base time.Duration, attempt int) time.Duration {
	delay := base * time.Duration(1<<uint(attempt-1))
	if r.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(r.MaxJitter)))
	}
	return delay
}
