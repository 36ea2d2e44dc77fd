package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/target/guardlink/internal/core"
	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
)

// SessionCompleter finishes a handshake once the provider has authorized it.
// An error means the attempt should be repeated on the next tick.
type SessionCompleter interface {
	Complete(ctx context.Context, memberID string, cred model.Credential) (model.SessionOutcome, error)
}

// LoginSession is one polling handshake for one requester.
// It is owned by the SessionRegistry's loop and is not safe for concurrent use.
type LoginSession struct {
	id           string
	requester    string
	pollToken    string
	challengeURL string
	createdAt    time.Time
	deadline     time.Time

	state   model.SessionState
	polls   int
	cred    *model.Credential
	outcome model.SessionOutcome
}

// startLoginSession issues a provider token and returns a pending session.
// No session exists when the provider is unavailable.
func startLoginSession(ctx context.Context, provider core.AuthProvider, p sessionParams) (*LoginSession, error) {
	challenge, err := provider.IssueToken(ctx)
	if err != nil {
		if apperrors.IsUnavailable(err) {
			return nil, err
		}
		return nil, apperrors.Unavailable(err, "issue login token")
	}
	if challenge.PollToken == "" {
		return nil, apperrors.Unavailable(nil, "issue login token: empty poll token")
	}

	return &LoginSession{
		id:           p.id,
		requester:    p.requester,
		pollToken:    challenge.PollToken,
		challengeURL: challenge.ChallengeURL,
		createdAt:    p.now,
		deadline:     p.now.Add(p.timeout),
		state:        model.SessionPending,
	}, nil
}

type sessionParams struct {
	id        string
	requester string
	now       time.Time
	timeout   time.Duration
}

// State returns the current state.
func (s *LoginSession) State() model.SessionState { return s.state }

// Info returns a read-only view of the session.
func (s *LoginSession) Info() model.SessionInfo {
	return model.SessionInfo{
		ID:        s.id,
		Requester: s.requester,
		State:     s.state,
		CreatedAt: s.createdAt,
		Deadline:  s.deadline,
		Polls:     s.polls,
	}
}

// Outcome returns the terminal outcome. It is only meaningful once the session is terminal.
func (s *LoginSession) Outcome() model.SessionOutcome {
	out := s.outcome
	out.SessionID = s.id
	out.Requester = s.requester
	out.State = s.state
	return out
}

// expire moves a pending session past its deadline to TimedOut.
func (s *LoginSession) expire(now time.Time) bool {
	if s.state != model.SessionPending || now.Before(s.deadline) {
		return false
	}
	s.state = model.SessionTimedOut
	return true
}

// poll advances a pending session by one step. Provider and completion
// failures leave the session pending; only the deadline ends it otherwise.
func (s *LoginSession) poll(ctx context.Context, provider core.AuthProvider, completer SessionCompleter, logger *slog.Logger) {
	if s.state != model.SessionPending {
		return
	}
	s.polls++

	if s.cred == nil {
		res, err := provider.PollTokenStatus(ctx, s.pollToken)
		if err != nil {
			logger.DebugContext(ctx, "poll token status failed", "error", err, "polls", s.polls)
			return
		}
		if res.Status != model.TokenAuthorized {
			return
		}
		if res.Credential == nil {
			logger.WarnContext(ctx, "provider reported authorization without credential")
			return
		}
		s.cred = res.Credential
	}

	outcome, err := completer.Complete(ctx, s.requester, *s.cred)
	if err != nil {
		logger.WarnContext(ctx, "complete authorized session failed, will retry", "error", err)
		return
	}
	s.outcome = outcome
	s.state = model.SessionSucceeded
}
