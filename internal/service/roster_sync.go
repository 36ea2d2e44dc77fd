package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/target/guardlink/internal/core"
	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
	obserrors "github.com/target/guardlink/internal/observability/errors"
	"github.com/target/guardlink/internal/observability/metrics"
	"github.com/target/guardlink/internal/observability/notify"
)

// RosterCycleRunner produces a fresh roster snapshot.
type RosterCycleRunner interface {
	RunCycle(ctx context.Context) (*model.RosterSnapshot, error)
}

// SnapshotReconciler applies a snapshot to stored members.
type SnapshotReconciler interface {
	RunCycle(ctx context.Context, snap *model.RosterSnapshot) (model.ReconcileSummary, error)
}

// OpsAlerter raises operational alerts.
type OpsAlerter interface {
	NotifyOpsAlert(ctx context.Context, payload notify.OpsAlertPayload)
}

// RosterSyncOptions groups dependencies for RosterSyncService.
type RosterSyncOptions struct {
	Ingestor   RosterCycleRunner  // Required
	Reconciler SnapshotReconciler // Required
	Cache      core.SnapshotCache // Optional: enables the startup run when no snapshot exists
	Messenger  core.Messenger     // Optional: admin cycle reports
	// AdminChannel receives cycle reports and page-1 failure notices.
	AdminChannel string
	Alerts       OpsAlerter // Optional
	Interval     time.Duration
	// StartupJitter bounds the random delay before the first scheduled action.
	StartupJitter       time.Duration
	RunOnStartWhenEmpty bool
	Logger              *slog.Logger
	Metrics             metrics.Sink
}

// RosterSyncService drives ingestion followed by reconciliation on a fixed
// interval. Cycles never overlap; a manual run waits for a scheduled one.
type RosterSyncService struct {
	ingestor     RosterCycleRunner
	reconciler   SnapshotReconciler
	cache        core.SnapshotCache
	messenger    core.Messenger
	adminChannel string
	alerts       OpsAlerter
	interval     time.Duration
	jitter       time.Duration
	runOnStart   bool
	logger       *slog.Logger
	metrics      metrics.Sink

	mu sync.Mutex
}

// NewRosterSyncService constructs a RosterSyncService.
func NewRosterSyncService(opts RosterSyncOptions) (*RosterSyncService, error) {
	if opts.Ingestor == nil {
		return nil, errors.New("RosterCycleRunner is required")
	}
	if opts.Reconciler == nil {
		return nil, errors.New("SnapshotReconciler is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("roster interval must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterSyncService{
		ingestor:     opts.Ingestor,
		reconciler:   opts.Reconciler,
		cache:        opts.Cache,
		messenger:    opts.Messenger,
		adminChannel: opts.AdminChannel,
		alerts:       opts.Alerts,
		interval:     opts.Interval,
		jitter:       opts.StartupJitter,
		runOnStart:   opts.RunOnStartWhenEmpty,
		logger:       logger.With("component", "roster_sync"),
		metrics:      opts.Metrics,
	}, nil
}

// Run executes cycles every Interval until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *RosterSyncService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting roster sync", "interval", s.interval)

	s.waitWithJitter(ctx)
	if s.runOnStart && s.snapshotMissing(ctx) {
		s.logger.InfoContext(ctx, "no roster snapshot cached, running initial cycle")
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.WarnContext(ctx, "initial roster cycle failed", "error", err)
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "roster sync stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.WarnContext(ctx, "roster cycle failed", "error", err)
			}
		}
	}
}

func (s *RosterSyncService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.jitter)
	if maxJitter <= 0 {
		return
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter
	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *RosterSyncService) snapshotMissing(ctx context.Context) bool {
	if s.cache == nil {
		return true
	}
	snap, err := s.cache.LatestSnapshot(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "latest snapshot lookup failed", "error", err)
		return true
	}
	return snap == nil
}

// RunOnce runs one ingestion and, when it produced a snapshot, one
// reconciliation. A page-1 failure raises an alert and leaves members untouched.
func (s *RosterSyncService) RunOnce(ctx context.Context) (model.RosterCycleReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	var report model.RosterCycleReport

	snap, err := s.ingestor.RunCycle(ctx)
	if err != nil {
		if apperrors.IsFirstPageFailure(err) {
			s.raiseFirstPageFailure(ctx, err)
		}
		metrics.Emit(s.metrics, metrics.Outcome{Name: "roster.cycle", Err: err, Duration: time.Since(start)})
		return report, err
	}
	report.Snapshot = snap.Summary()

	sum, err := s.reconciler.RunCycle(ctx, snap)
	report.Reconcile = sum
	report.Elapsed = time.Since(start)
	if err != nil {
		metrics.Emit(s.metrics, metrics.Outcome{Name: "roster.cycle", Err: err, Duration: report.Elapsed})
		return report, fmt.Errorf("reconcile: %w", err)
	}

	metrics.Emit(s.metrics, metrics.Outcome{Name: "roster.cycle", Duration: report.Elapsed})
	s.adminMessage(ctx, cycleReportText(report))
	return report, nil
}

func (s *RosterSyncService) raiseFirstPageFailure(ctx context.Context, err error) {
	s.adminMessage(ctx, "Roster refresh failed: the first page could not be fetched. The previous roster stays in effect.")
	if s.alerts == nil {
		return
	}
	s.alerts.NotifyOpsAlert(ctx, notify.OpsAlertPayload{
		Kind:       "roster_first_page_failure",
		Summary:    "Roster ingestion aborted: page 1 unavailable",
		Error:      err.Error(),
		ErrorClass: obserrors.Classify(err),
		Severity:   notify.SeverityWarning,
		OccurredAt: time.Now(),
	})
}

func (s *RosterSyncService) adminMessage(ctx context.Context, content string) {
	if s.messenger == nil || s.adminChannel == "" {
		return
	}
	if err := s.messenger.Send(ctx, core.Message{ChannelID: s.adminChannel, Content: content}); err != nil {
		s.logger.WarnContext(ctx, "admin report not delivered", "error", err)
	}
}

func cycleReportText(r model.RosterCycleReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Roster refreshed: %d of %d supporters collected (%.1f%%) in %s.",
		r.Snapshot.Collected, r.Snapshot.TotalCount, r.Snapshot.SuccessRatio*100, r.Elapsed.Round(time.Second))
	if len(r.Snapshot.LostPages) > 0 {
		fmt.Fprintf(&b, " Lost pages: %v.", r.Snapshot.LostPages)
	}
	fmt.Fprintf(&b, " Members updated: %d (granted %d, revoked %d, failures %d).",
		r.Reconcile.Changed, r.Reconcile.Granted, r.Reconcile.Revoked, r.Reconcile.Failures)
	return b.String()
}
