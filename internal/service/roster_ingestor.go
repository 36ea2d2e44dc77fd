package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/target/guardlink/internal/core"
	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
	"github.com/target/guardlink/internal/observability/metrics"
	"github.com/target/guardlink/internal/retry"
)

// errCycleDeadline reports that the next paced request would start after the
// cycle's deadline. It wraps context.DeadlineExceeded.
var errCycleDeadline = fmt.Errorf("roster cycle deadline reached: %w", context.DeadlineExceeded)

// RosterIngestorOptions groups dependencies for RosterIngestor.
type RosterIngestorOptions struct {
	Source core.RosterSource  // Required
	Cache  core.SnapshotCache // Optional: snapshot persistence
	// PageDelay is waited before every page request, retries included.
	PageDelay time.Duration
	// PageAttempts bounds attempts per page (first try plus retries).
	PageAttempts int
	RetryBackoff time.Duration
	Clock        func() time.Time
	NewID        func() string
	Logger       *slog.Logger
	Metrics      metrics.Sink
}

// RosterIngestor pulls the complete paginated roster, one page at a time.
type RosterIngestor struct {
	source    core.RosterSource
	cache     core.SnapshotCache
	pageDelay time.Duration
	policy    retry.Policy
	clock     func() time.Time
	newID     func() string
	logger    *slog.Logger
	metrics   metrics.Sink
}

// NewRosterIngestor constructs a RosterIngestor.
func NewRosterIngestor(opts RosterIngestorOptions) (*RosterIngestor, error) {
	if opts.Source == nil {
		return nil, errors.New("RosterSource is required")
	}
	if opts.PageAttempts <= 0 {
		opts.PageAttempts = 3
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterIngestor{
		source:    opts.Source,
		cache:     opts.Cache,
		pageDelay: opts.PageDelay,
		policy: retry.Policy{
			MaxAttempts: opts.PageAttempts,
			Backoff:     retry.Constant(opts.RetryBackoff),
		},
		clock:   opts.Clock,
		newID:   opts.NewID,
		logger:  logger.With("component", "roster_ingestor"),
		metrics: opts.Metrics,
	}, nil
}

// RunCycle fetches every roster page in order and returns the resulting
// snapshot. When page 1 cannot be fetched it returns a FirstPageFailure and
// no snapshot; later pages that stay unavailable are skipped and listed in
// the snapshot's LostPages.
func (i *RosterIngestor) RunCycle(ctx context.Context) (*model.RosterSnapshot, error) {
	start := i.clock()
	cycleID := i.newID()
	logger := i.logger.With("cycle_id", cycleID)
	limiter := i.newLimiter()

	first, err := i.fetchPage(ctx, limiter, 1)
	if err != nil {
		if aborted := cycleAborted(ctx, err); aborted != nil {
			logger.WarnContext(ctx, "roster cycle aborted before first page", "error", aborted)
			return nil, aborted
		}
		failure := apperrors.FirstPageFailure(err)
		logger.ErrorContext(ctx, "roster first page unavailable, keeping previous snapshot", "error", err)
		metrics.Emit(i.metrics, metrics.Outcome{Name: "roster.ingest", Err: failure, Duration: i.clock().Sub(start)})
		return nil, failure
	}

	snap := &model.RosterSnapshot{
		CycleID:    cycleID,
		TotalPages: max(first.TotalPages, 1),
		TotalCount: first.TotalCount,
	}
	seen := make(map[int64]struct{}, max(first.TotalCount, 0))
	collect := func(entries []model.RosterEntry) {
		for _, e := range entries {
			if _, dup := seen[e.AccountID]; dup {
				continue
			}
			seen[e.AccountID] = struct{}{}
			snap.Entries = append(snap.Entries, e)
		}
	}
	collect(first.Top)
	collect(first.Entries)

	for page := 2; page <= snap.TotalPages; page++ {
		p, err := i.fetchPage(ctx, limiter, page)
		if err != nil {
			if aborted := cycleAborted(ctx, err); aborted != nil {
				logger.WarnContext(ctx, "roster cycle aborted, keeping previous snapshot", "page", page, "error", aborted)
				return nil, aborted
			}
			logger.WarnContext(ctx, "roster page lost", "page", page, "error", err)
			snap.LostPages = append(snap.LostPages, page)
			continue
		}
		collect(p.Top)
		collect(p.Entries)
	}
	snap.FetchedAt = i.clock()

	elapsed := snap.FetchedAt.Sub(start)
	logger.InfoContext(ctx, "roster ingested",
		"collected", len(snap.Entries),
		"reported", snap.TotalCount,
		"pages", snap.TotalPages,
		"lost_pages", snap.LostPages,
		"success_ratio", snap.SuccessRatio(),
		"elapsed", elapsed,
	)
	var partial error
	if len(snap.LostPages) > 0 {
		partial = apperrors.PartialIngestion(snap.LostPages)
		logger.WarnContext(ctx, "roster ingestion incomplete", "error", partial)
	}
	metrics.Emit(i.metrics, metrics.Outcome{Name: "roster.ingest", Err: partial, Duration: elapsed})
	if i.metrics != nil {
		i.metrics.Gauge("roster.success_ratio", snap.SuccessRatio(), nil)
		i.metrics.Gauge("roster.entries", float64(len(snap.Entries)), nil)
	}

	if i.cache != nil {
		if err := i.cache.SaveSnapshot(ctx, snap); err != nil {
			logger.ErrorContext(ctx, "roster snapshot not cached", "error", err)
		}
	}
	return snap, nil
}

// cycleAborted returns the error that ends the whole cycle, or nil when err is
// an upstream failure confined to one page.
func cycleAborted(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, errCycleDeadline) {
		return errCycleDeadline
	}
	return nil
}

// newLimiter paces requests at one per PageDelay. The initial burst token is
// consumed so the first request is delayed as well.
func (i *RosterIngestor) newLimiter() *rate.Limiter {
	if i.pageDelay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	l := rate.NewLimiter(rate.Every(i.pageDelay), 1)
	l.Allow()
	return l
}

func (i *RosterIngestor) fetchPage(ctx context.Context, limiter *rate.Limiter, page int) (*model.RosterPage, error) {
	p, err := retry.Do(ctx, i.policy, func(ctx context.Context, attempt int) (*model.RosterPage, error) {
		if err := limiter.Wait(ctx); err != nil {
			// Wait refuses up front when the token lands past the deadline.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, retry.Permanent(ctxErr)
			}
			return nil, retry.Permanent(errCycleDeadline)
		}
		p, err := i.source.FetchRosterPage(ctx, page)
		if err != nil {
			i.logger.DebugContext(ctx, "roster page fetch failed", "page", page, "attempt", attempt, "error", err)
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("roster page %d: empty response", page)
		}
		return p, nil
	})
	if i.metrics != nil {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		i.metrics.Count("roster.page_fetch", 1, map[string]string{"result": result})
	}
	return p, err
}
