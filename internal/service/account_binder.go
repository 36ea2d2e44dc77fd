package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/guardlink/internal/core"
	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
	"github.com/target/guardlink/internal/observability/metrics"
	"github.com/target/guardlink/internal/retry"
)

// AccountBinderOptions groups dependencies for AccountBinder.
type AccountBinderOptions struct {
	Provider  core.AuthProvider   // Required
	Store     core.UserStore      // Required
	Gateway   core.RoleGateway    // Required
	Tiers     model.TierRoleTable // Required: tier 1 first
	Snapshots core.SnapshotCache  // Optional: tier source for freshly bound accounts
	Messenger core.Messenger      // Optional: binding confirmation

	// BindingRole is granted to every member that completes a binding. Empty disables it.
	BindingRole string
	// ConfirmChannel receives the binding confirmation. Empty disables it.
	ConfirmChannel string

	GrantPolicy  retry.Policy
	NotifyPolicy retry.Policy
	Logger       *slog.Logger
	Metrics      metrics.Sink
}

// AccountBinder completes authorized login sessions: it resolves the account,
// records it, binds it to the requesting member and grants the matching roles.
type AccountBinder struct {
	provider       core.AuthProvider
	store          core.UserStore
	gateway        core.RoleGateway
	tiers          model.TierRoleTable
	snapshots      core.SnapshotCache
	messenger      core.Messenger
	bindingRole    string
	confirmChannel string
	grantPolicy    retry.Policy
	notifyPolicy   retry.Policy
	logger         *slog.Logger
	metrics        metrics.Sink
}

var _ SessionCompleter = (*AccountBinder)(nil)

// NewAccountBinder constructs an AccountBinder.
func NewAccountBinder(opts AccountBinderOptions) (*AccountBinder, error) {
	if opts.Provider == nil {
		return nil, errors.New("AuthProvider is required")
	}
	if opts.Store == nil {
		return nil, errors.New("UserStore is required")
	}
	if opts.Gateway == nil {
		return nil, errors.New("RoleGateway is required")
	}
	if opts.Tiers.MaxTier() == 0 {
		return nil, model.ErrEmptyTierTable
	}
	if opts.GrantPolicy.MaxAttempts <= 0 {
		opts.GrantPolicy = retry.Policy{MaxAttempts: 3, Backoff: retry.Linear(500 * time.Millisecond)}
	}
	if opts.NotifyPolicy.MaxAttempts <= 0 {
		opts.NotifyPolicy = retry.Policy{MaxAttempts: 3, Backoff: retry.Linear(500 * time.Millisecond)}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AccountBinder{
		provider:       opts.Provider,
		store:          opts.Store,
		gateway:        opts.Gateway,
		tiers:          opts.Tiers,
		snapshots:      opts.Snapshots,
		messenger:      opts.Messenger,
		bindingRole:    opts.BindingRole,
		confirmChannel: opts.ConfirmChannel,
		grantPolicy:    opts.GrantPolicy,
		notifyPolicy:   opts.NotifyPolicy,
		logger:         logger.With("component", "account_binder"),
		metrics:        opts.Metrics,
	}, nil
}

// Complete runs the bind workflow for memberID. A returned error means the
// account could not be resolved or recorded and the caller should try again;
// every other failure is logged and folded into the outcome.
func (b *AccountBinder) Complete(ctx context.Context, memberID string, cred model.Credential) (model.SessionOutcome, error) {
	start := time.Now()

	acct, err := b.provider.AccountLookup(ctx, cred)
	if err != nil {
		b.emit("lookup", start, err)
		return model.SessionOutcome{}, fmt.Errorf("account lookup: %w", err)
	}
	acct.Tier = b.lookupTier(ctx, acct.ID)

	if err = b.store.UpsertExternalAccount(ctx, model.ExternalAccount{
		ID:          acct.ID,
		DisplayName: acct.DisplayName,
		Level:       acct.Level,
		Tier:        acct.Tier,
	}); err != nil {
		b.emit("record", start, err)
		return model.SessionOutcome{}, fmt.Errorf("record external account %d: %w", acct.ID, err)
	}

	result, err := b.store.BindExternalAccount(ctx, memberID, acct.ID)
	if err != nil {
		b.emit("bind", start, err)
		return model.SessionOutcome{}, fmt.Errorf("bind external account %d: %w", acct.ID, err)
	}

	logger := b.logger.With("member_id", memberID, "account_id", acct.ID)
	if result == model.BindAlreadyBound && b.boundTo(ctx, logger, memberID, acct.ID) {
		// An earlier attempt committed the bind but its reply was lost.
		logger.InfoContext(ctx, "binding already recorded for this account, resuming grants")
		result = model.BindSuccess
	}
	outcome := model.SessionOutcome{BindResult: result, Account: &acct, Tier: acct.Tier}

	if result != model.BindSuccess {
		conflict := apperrors.BindingConflict(string(result))
		logger.InfoContext(ctx, "binding refused", "bind_result", result, "error", conflict)
		metrics.Emit(b.metrics, metrics.Outcome{
			Name:     "link.bind",
			Result:   string(result),
			Err:      conflict,
			Duration: time.Since(start),
			Tags:     map[string]string{"stage": "bind"},
		})
		return outcome, nil
	}

	grants := b.grantRoles(ctx, logger, memberID, acct.Tier)
	b.saveMember(ctx, logger, memberID, acct.Tier, grants)
	b.confirm(ctx, logger, memberID, acct)

	logger.InfoContext(ctx, "account bound", "tier", acct.Tier, "grant_failures", grants.failures)
	b.emit("bind", start, nil)
	return outcome, nil
}

// boundTo reports whether memberID is already bound to accountID.
func (b *AccountBinder) boundTo(ctx context.Context, logger *slog.Logger, memberID string, accountID int64) bool {
	m, err := b.store.GetMember(ctx, memberID)
	if err != nil {
		logger.WarnContext(ctx, "member lookup after bind conflict failed", "error", err)
		return false
	}
	return m.ExternalAccountID != nil && *m.ExternalAccountID == accountID
}

func (b *AccountBinder) lookupTier(ctx context.Context, accountID int64) int {
	if b.snapshots == nil {
		return model.TierNone
	}
	entry, ok, err := b.snapshots.LookupEntry(ctx, accountID)
	if err != nil {
		b.logger.WarnContext(ctx, "roster lookup failed, binding without tier", "account_id", accountID, "error", err)
		return model.TierNone
	}
	if !ok {
		return model.TierNone
	}
	if !b.tiers.InRange(entry.Tier) && entry.Tier != model.TierNone {
		b.logger.WarnContext(ctx, "roster tier has no role mapping", "account_id", accountID, "tier", entry.Tier)
	}
	return b.tiers.Normalize(entry.Tier)
}

type grantReport struct {
	bindingGranted bool
	tierGranted    bool
	failures       int
}

func (b *AccountBinder) grantRoles(ctx context.Context, logger *slog.Logger, memberID string, tier int) grantReport {
	var rep grantReport
	if b.bindingRole != "" {
		if err := b.grant(ctx, memberID, b.bindingRole); err != nil {
			logger.WarnContext(ctx, "binding role grant failed", "role_id", b.bindingRole, "error", err)
			rep.failures++
		} else {
			rep.bindingGranted = true
		}
	}
	if role, ok := b.tiers.RoleFor(tier); ok {
		if err := b.grant(ctx, memberID, role); err != nil {
			logger.WarnContext(ctx, "tier role grant failed", "role_id", role, "tier", tier, "error", err)
			rep.failures++
		} else {
			rep.tierGranted = true
		}
	}
	return rep
}

func (b *AccountBinder) grant(ctx context.Context, memberID, roleID string) error {
	return retry.Run(ctx, b.grantPolicy, func(ctx context.Context, _ int) error {
		return b.gateway.Grant(ctx, memberID, roleID)
	})
}

// saveMember records the granted roles. The tier is only recorded once its
// role is granted, so a failed grant stays visible to the next reconciliation.
func (b *AccountBinder) saveMember(ctx context.Context, logger *slog.Logger, memberID string, tier int, rep grantReport) {
	_, _, err := b.store.UpdateMember(ctx, memberID, func(m *model.Member) error {
		if rep.bindingGranted {
			m.Roles.Add(b.bindingRole)
		}
		if rep.tierGranted {
			role, _ := b.tiers.RoleFor(tier)
			m.Roles.Add(role)
			m.Tier = tier
		}
		m.SyncError = rep.failures > 0
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "member update after binding failed", "error", err)
	}
}

func (b *AccountBinder) confirm(ctx context.Context, logger *slog.Logger, memberID string, acct model.Account) {
	if b.messenger == nil || b.confirmChannel == "" {
		return
	}
	msg := core.Message{
		ChannelID:   b.confirmChannel,
		RecipientID: memberID,
		Content:     bindingConfirmation(acct),
	}
	err := retry.Run(ctx, b.notifyPolicy, func(ctx context.Context, _ int) error {
		return b.messenger.Send(ctx, msg)
	})
	if err != nil {
		logger.WarnContext(ctx, "binding confirmation not delivered", "error", err)
	}
}

func (b *AccountBinder) emit(stage string, start time.Time, err error) {
	metrics.Emit(b.metrics, metrics.Outcome{
		Name:     "link.bind",
		Duration: time.Since(start),
		Err:      err,
		Tags:     map[string]string{"stage": stage},
	})
}

func bindingConfirmation(acct model.Account) string {
	if acct.Tier == model.TierNone {
		return fmt.Sprintf("Linked account %s (uid %d, level %d).", acct.DisplayName, acct.ID, acct.Level)
	}
	return fmt.Sprintf("Linked account %s (uid %d, level %d) with supporter tier %d.",
		acct.DisplayName, acct.ID, acct.Level, acct.Tier)
}
