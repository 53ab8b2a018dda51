package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3}
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Backoff: Fixed(time.Millisecond)}
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsBudgetAndReturnsLastError(t *testing.T) {
	sentinel := errors.New("boom")
	calls := 0
	p := Policy{MaxAttempts: 3, Backoff: Fixed(time.Millisecond)}
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return sentinel
	})
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, sentinel)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	p := Policy{
		MaxAttempts: 5,
		Retryable:   func(err error) bool { return !errors.Is(err, fatal) },
	}
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return fatal
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, fatal)
}

func TestDo_ContextCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{MaxAttempts: 10, Backoff: Fixed(50 * time.Millisecond)}
	err := p.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_InvalidMaxAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 0}
	err := p.Do(context.Background(), func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

func TestBackoff_ErrorAwareDelays(t *testing.T) {
	// A backoff can branch on the error class, like the price probe does.
	slow := errors.New("request failed")
	b := func(attempt int, err error) time.Duration {
		if errors.Is(err, slow) {
			return 5 * time.Second
		}
		return 3 * time.Second
	}
	assert.Equal(t, 5*time.Second, b(0, slow))
	assert.Equal(t, 3*time.Second, b(0, errors.New("empty result")))
}

func TestLinear(t *testing.T) {
	b := Linear(2 * time.Second)
	assert.Equal(t, 2*time.Second, b(0, nil))
	assert.Equal(t, 4*time.Second, b(1, nil))
	assert.Equal(t, 6*time.Second, b(2, nil))
}
