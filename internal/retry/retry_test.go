package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), Policy{MaxAttempts: 3}, func(_ context.Context, attempt int) (string, error) {
		calls++
		if attempt < 3 {
			return "", errors.New("transient")
		}
		return "page", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "page", v)
	assert.Equal(t, 3, calls)
}

func TestDoExhausted(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 3}, func(context.Context, int) (int, error) {
		calls++
		return 0, boom
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Run(context.Background(), Policy{}, func(context.Context, int) error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}

func TestDoPermanentStopsImmediately(t *testing.T) {
	bad := errors.New("malformed response")
	calls := 0
	err := Run(context.Background(), Policy{MaxAttempts: 5}, func(context.Context, int) error {
		calls++
		return Permanent(bad)
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, bad, err)
}

func TestDoBackoffSchedule(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			d := Linear(time.Millisecond)(attempt)
			delays = append(delays, d)
			return d
		},
	}
	_ = Run(context.Background(), p, func(context.Context, int) error { return errors.New("x") })

	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Run(ctx, Policy{MaxAttempts: 5, Backoff: Constant(time.Hour)}, func(context.Context, int) error {
		calls++
		cancel()
		return errors.New("x")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
