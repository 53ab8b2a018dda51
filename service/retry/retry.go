package retry

import (
	"context"
	"fmt"
	"time"
)

// Backoff computes the delay before the next attempt. The attempt number is
// zero-based (the attempt that just failed), and err is the error it returned,
// so a policy can pick different delays for different failure classes.
type Backoff func(attempt int, err error) time.Duration

// Fixed returns the same delay after every failed attempt.
func Fixed(d time.Duration) Backoff {
	return func(int, error) time.Duration { return d }
}

// Linear returns base, 2*base, 3*base, ...
func Linear(base time.Duration) Backoff {
	return func(attempt int, _ error) time.Duration {
		return time.Duration(attempt+1) * base
	}
}

// Policy describes a bounded retry loop.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff computes the sleep between attempts. Nil means no sleep.
	Backoff Backoff

	// Retryable reports whether an error is worth another attempt.
	// Nil means every error is retryable.
	Retryable func(error) bool
}

// Do runs op until it succeeds, the attempt budget runs out, the error is not
// retryable, or ctx is cancelled. The last error is returned unwrapped so
// callers can match sentinels with errors.Is.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: MaxAttempts must be at least 1, got %d", p.MaxAttempts)
	}

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		err = op(ctx)
		if err == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		// No sleep after the final attempt.
		if attempt == p.MaxAttempts-1 {
			break
		}

		if p.Backoff != nil {
			delay := p.Backoff(attempt, err)
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}

	return err
}
