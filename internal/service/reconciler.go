package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/guardlink/internal/core"
	"github.com/target/guardlink/internal/domain/model"
	"github.com/target/guardlink/internal/observability/metrics"
)

// ReconcileScope selects which members a reconciliation pass examines.
type ReconcileScope string

const (
	// ScopeBound examines every member with a bound account, so tier 0 members can be upgraded.
	ScopeBound ReconcileScope = "bound"
	// ScopeTiered examines only members that currently hold a tier.
	ScopeTiered ReconcileScope = "tiered"
)

// ParseReconcileScope validates a configured scope name.
func ParseReconcileScope(s string) (ReconcileScope, error) {
	switch ReconcileScope(s) {
	case ScopeBound, ScopeTiered:
		return ReconcileScope(s), nil
	case "":
		return ScopeBound, nil
	default:
		return "", fmt.Errorf("unknown reconcile scope %q", s)
	}
}

// ReconcilerOptions groups dependencies for Reconciler.
type ReconcilerOptions struct {
	Store   core.UserStore      // Required
	Gateway core.RoleGateway    // Required
	Tiers   model.TierRoleTable // Required
	Scope   ReconcileScope
	Logger  *slog.Logger
	Metrics metrics.Sink
}

// Reconciler converges stored member tiers and roles onto a roster snapshot.
type Reconciler struct {
	store   core.UserStore
	gateway core.RoleGateway
	tiers   model.TierRoleTable
	scope   ReconcileScope
	logger  *slog.Logger
	metrics metrics.Sink
}

// NewReconciler constructs a Reconciler.
func NewReconciler(opts ReconcilerOptions) (*Reconciler, error) {
	if opts.Store == nil {
		return nil, errors.New("UserStore is required")
	}
	if opts.Gateway == nil {
		return nil, errors.New("RoleGateway is required")
	}
	if opts.Tiers.MaxTier() == 0 {
		return nil, model.ErrEmptyTierTable
	}
	scope, err := ParseReconcileScope(string(opts.Scope))
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:   opts.Store,
		gateway: opts.Gateway,
		tiers:   opts.Tiers,
		scope:   scope,
		logger:  logger.With("component", "reconciler"),
		metrics: opts.Metrics,
	}, nil
}

// RunCycle applies snap to the stored members. Each member is handled on its
// own: role calls first, then a read-modify-write that commits immediately.
// A failure for one member is counted and logged and never stops the pass.
// The error is only non-nil when the member set could not be loaded.
func (r *Reconciler) RunCycle(ctx context.Context, snap *model.RosterSnapshot) (model.ReconcileSummary, error) {
	var sum model.ReconcileSummary
	if snap == nil {
		return sum, errors.New("reconcile: snapshot is required")
	}
	start := time.Now()

	members, err := r.loadMembers(ctx)
	if err != nil {
		metrics.Emit(r.metrics, metrics.Outcome{Name: "roster.reconcile", Err: err})
		return sum, fmt.Errorf("load members: %w", err)
	}

	roster := snap.Index()
	for _, m := range members {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		sum.Examined++
		r.reconcileMember(ctx, m, roster, &sum)
	}

	r.logger.InfoContext(ctx, "reconciliation finished",
		"cycle_id", snap.CycleID,
		"scope", r.scope,
		"examined", sum.Examined,
		"changed", sum.Changed,
		"granted", sum.Granted,
		"revoked", sum.Revoked,
		"failures", sum.Failures,
	)
	metrics.Emit(r.metrics, metrics.Outcome{Name: "roster.reconcile", Duration: time.Since(start)})
	return sum, nil
}

func (r *Reconciler) loadMembers(ctx context.Context) ([]*model.Member, error) {
	if r.scope == ScopeTiered {
		return r.store.FindMembersWithNonZeroTier(ctx)
	}
	return r.store.FindMembersWithBoundAccount(ctx)
}

func (r *Reconciler) reconcileMember(ctx context.Context, m *model.Member, roster map[int64]model.RosterEntry, sum *model.ReconcileSummary) {
	target := model.TierNone
	if m.ExternalAccountID != nil {
		if e, ok := roster[*m.ExternalAccountID]; ok {
			if e.Tier != model.TierNone && !r.tiers.InRange(e.Tier) {
				r.logger.WarnContext(ctx, "roster tier has no role mapping",
					"member_id", m.ID, "account_id", e.AccountID, "tier", e.Tier)
			}
			target = e.Tier
		}
	}

	change := model.PlanTierChange(r.tiers, m.Tier, target)
	if change.IsNoop() {
		return
	}
	logger := r.logger.With("member_id", m.ID, "from_tier", change.From, "to_tier", change.To)

	failed := false
	if change.Revoke != "" {
		if err := r.gateway.Revoke(ctx, m.ID, change.Revoke); err != nil {
			logger.WarnContext(ctx, "tier role revoke failed", "role_id", change.Revoke, "error", err)
			failed = true
			sum.Failures++
		} else {
			sum.Revoked++
		}
	}
	if change.Grant != "" {
		if err := r.gateway.Grant(ctx, m.ID, change.Grant); err != nil {
			logger.WarnContext(ctx, "tier role grant failed", "role_id", change.Grant, "error", err)
			failed = true
			sum.Failures++
		} else {
			sum.Granted++
		}
	}

	_, written, err := r.store.UpdateMember(ctx, m.ID, func(cur *model.Member) error {
		// Another writer moved the member since it was loaded; the next pass re-plans it.
		if r.tiers.Normalize(cur.Tier) != change.From {
			return core.ErrNoChange
		}
		cur.ApplyTierChange(change)
		cur.SyncError = failed
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "member tier not saved", "error", err)
		sum.Failures++
		return
	}
	if !written {
		logger.InfoContext(ctx, "member changed concurrently, skipped")
		return
	}
	sum.Changed++

	if r.metrics != nil {
		direction := "down"
		if change.To != model.TierNone && (change.From == model.TierNone || change.To < change.From) {
			direction = "up"
		}
		r.metrics.Count("roster.tier_transition", 1, map[string]string{"direction": direction})
	}
	logger.InfoContext(ctx, "member tier reconciled", "sync_error", failed)
}
