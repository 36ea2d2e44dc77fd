// Package retry runs an operation a bounded number of times with a backoff between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backoff returns the delay to wait after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// Linear grows the delay by step for every failed attempt.
func Linear(step time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Constant waits the same delay after every failed attempt.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Policy bounds an operation's attempts. MaxAttempts below 1 is treated as 1.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying; Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls op until it succeeds or the policy is exhausted. The attempt
// number passed to op is 1-based. Context cancellation stops retrying and
// returns the context error.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	attempts := max(p.MaxAttempts, 1)

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx, attempt)
		if err == nil {
			return v, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		last = err

		if attempt == attempts || p.Backoff == nil {
			continue
		}
		if err := sleep(ctx, p.Backoff(attempt)); err != nil {
			return zero, err
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Last: last}
}

// Run is Do for operations without a result value.
func Run(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error) error {
	_, err := Do(ctx, p, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, op(ctx, attempt)
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
