package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickFunc func(ctx context.Context, now time.Time) (int, error)

func (f tickFunc) Tick(ctx context.Context, now time.Time) (int, error) { return f(ctx, now) }

type countingSink struct {
	mu     sync.Mutex
	counts map[string][]map[string]string
}

func (s *countingSink) Count(name string, _ int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[string][]map[string]string{}
	}
	s.counts[name] = append(s.counts[name], tags)
}
func (s *countingSink) Gauge(string, float64, map[string]string)        {}
func (s *countingSink) Timing(string, time.Duration, map[string]string) {}

func (s *countingSink) tags(name string) []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.counts[name]...)
}

func TestNewRunnerRequiresTicker(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
}

func TestRunnerTicksUntilCancelled(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	sink := &countingSink{}
	r, err := NewRunner(RunnerOptions{
		Name:     "link",
		Interval: 5 * time.Millisecond,
		Metrics:  sink,
		Ticker: tickFunc(func(context.Context, time.Time) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return 0, errors.New("transient")
			}
			return 1, nil
		}),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 3
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}

	ticks := sink.tags("link.tick")
	require.GreaterOrEqual(t, len(ticks), 3)
	assert.Equal(t, "error", ticks[0]["result"])
	assert.NotEqual(t, "none", ticks[0]["error_class"])
	assert.Equal(t, "success", ticks[1]["result"])
	assert.Equal(t, "none", ticks[1]["error_class"])
	assert.NotEmpty(t, sink.tags("link.tick_items"))
}

func TestRunnerReturnsDeadlineError(t *testing.T) {
	r, err := NewRunner(RunnerOptions{
		Interval: time.Hour,
		Ticker:   tickFunc(func(context.Context, time.Time) (int, error) { return 0, nil }),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Run(ctx), context.DeadlineExceeded)
}
