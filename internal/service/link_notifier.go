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
	"github.com/target/guardlink/internal/retry"
)

// LinkNotifierOptions groups dependencies for LinkNotifier.
type LinkNotifierOptions struct {
	Messenger core.Messenger // Required
	// Channel is where session notices are posted, visible only to the requester.
	Channel string
	Policy  retry.Policy
	Logger  *slog.Logger
}

// LinkNotifier posts terminal session notices to the requester.
type LinkNotifier struct {
	messenger core.Messenger
	channel   string
	policy    retry.Policy
	logger    *slog.Logger
}

var _ OutcomeNotifier = (*LinkNotifier)(nil)

// NewLinkNotifier constructs a LinkNotifier.
func NewLinkNotifier(opts LinkNotifierOptions) (*LinkNotifier, error) {
	if opts.Messenger == nil {
		return nil, errors.New("Messenger is required")
	}
	if opts.Channel == "" {
		return nil, errors.New("notice channel is required")
	}
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy = retry.Policy{MaxAttempts: 3, Backoff: retry.Linear(500 * time.Millisecond)}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkNotifier{
		messenger: opts.Messenger,
		channel:   opts.Channel,
		policy:    opts.Policy,
		logger:    logger.With("component", "link_notifier"),
	}, nil
}

// NotifyOutcome sends the notice for a terminal session, retrying within the
// policy. Exhaustion is reported as a notification failure.
func (n *LinkNotifier) NotifyOutcome(ctx context.Context, outcome model.SessionOutcome) error {
	content, ok := outcomeText(outcome)
	if !ok {
		return nil
	}
	msg := core.Message{ChannelID: n.channel, RecipientID: outcome.Requester, Content: content}

	err := retry.Run(ctx, n.policy, func(ctx context.Context, attempt int) error {
		if err := n.messenger.Send(ctx, msg); err != nil {
			n.logger.DebugContext(ctx, "notice send failed",
				"session_id", outcome.SessionID,
				"attempt", attempt,
				"error", err,
			)
			return err
		}
		return nil
	})
	if err != nil {
		return apperrors.NotificationFailure(err, outcome.Requester)
	}
	return nil
}

func outcomeText(o model.SessionOutcome) (string, bool) {
	switch o.State {
	case model.SessionTimedOut:
		return "The login link expired before it was confirmed. Request a new one to try again.", true
	case model.SessionSucceeded:
	default:
		return "", false
	}

	name := "the account"
	if o.Account != nil {
		name = fmt.Sprintf("%s (uid %d)", o.Account.DisplayName, o.Account.ID)
	}
	switch o.BindResult {
	case model.BindSuccess:
		if o.Tier == model.TierNone {
			return fmt.Sprintf("Linked %s.", name), true
		}
		return fmt.Sprintf("Linked %s. Supporter tier %d roles granted.", name, o.Tier), true
	case model.BindAlreadyBound:
		return fmt.Sprintf("Could not link %s: one of the two is already linked to another account.", name), true
	case model.BindMemberNotFound:
		return "Could not link: you are not registered yet. Register first and try again.", true
	case model.BindExternalAccountNotFound:
		return fmt.Sprintf("Could not link %s: the account record is missing.", name), true
	default:
		return fmt.Sprintf("Finished linking %s.", name), true
	}
}
