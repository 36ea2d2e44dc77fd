// Package scheduler runs periodic tick loops for background services.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	obserrors "github.com/target/guardlink/internal/observability/errors"
	"github.com/target/guardlink/internal/observability/metrics"
)

// Ticker performs one unit of periodic work and reports how many items it handled.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (int, error)
}

// Runner drives a Ticker on a fixed interval.
type Runner struct {
	ticker   Ticker
	name     string
	interval time.Duration
	logger   *slog.Logger
	metrics  metrics.Sink
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Ticker Ticker // Required
	// Name prefixes emitted metrics, e.g. "link" yields "link.tick".
	Name     string
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  metrics.Sink
}

// NewRunner creates a new runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Ticker == nil {
		return nil, errors.New("ticker is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Name == "" {
		opts.Name = "scheduler"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		ticker:   opts.Ticker,
		name:     opts.Name,
		interval: opts.Interval,
		logger:   logger.With("component", "runner", "runner", opts.Name),
		metrics:  opts.Metrics,
	}, nil
}

// Run ticks until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting tick runner", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "tick runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case now := <-ticker.C:
			r.tickOnce(ctx, now)
		}
	}
}

func (r *Runner) tickOnce(ctx context.Context, now time.Time) {
	start := time.Now()
	processed, err := r.ticker.Tick(ctx, now)
	elapsed := time.Since(start)

	r.emitTickMetrics(processed, elapsed, err)

	switch {
	case err != nil:
		// Keep ticking; the next interval retries.
		r.logger.WarnContext(ctx, "tick failed", "error", err)
	case processed > 0:
		r.logger.DebugContext(ctx, "tick processed items", "count", processed)
	}
}

func (r *Runner) emitTickMetrics(processed int, elapsed time.Duration, err error) {
	if r.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	} else if processed == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		"result":      result,
		"error_class": "none",
	}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	r.metrics.Count(r.name+".tick", 1, tags)
	if processed > 0 {
		r.metrics.Count(r.name+".tick_items", int64(processed), metrics.CloneTags(tags))
	}
	if elapsed > 0 {
		r.metrics.Timing(r.name+".tick_duration", elapsed, metrics.CloneTags(tags))
	}
	if err == nil {
		r.metrics.Gauge(r.name+".last_success_epoch", float64(time.Now().Unix()), nil)
	}
}
