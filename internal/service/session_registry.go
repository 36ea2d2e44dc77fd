package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/guardlink/internal/core"
	"github.com/target/guardlink/internal/domain/model"
	"github.com/target/guardlink/internal/observability/metrics"
)

// ErrRegistryStopped is returned when a command reaches a registry whose loop has exited.
var ErrRegistryStopped = errors.New("session registry stopped")

// OutcomeNotifier tells a requester how their session ended.
type OutcomeNotifier interface {
	NotifyOutcome(ctx context.Context, outcome model.SessionOutcome) error
}

// SessionRegistryOptions groups dependencies for SessionRegistry.
type SessionRegistryOptions struct {
	Provider  core.AuthProvider // Required: login handshake provider
	Completer SessionCompleter  // Required: bind/grant workflow for authorized sessions
	Notifier  OutcomeNotifier   // Optional: terminal notices to requesters
	// Timeout is the fixed session lifetime measured from admission.
	Timeout time.Duration
	// CallTimeout bounds each token issue, each poll and each completion run
	// on the owner goroutine. Zero uses 15s.
	CallTimeout time.Duration
	// DrainPollInterval is how often Drain re-checks the registry size.
	DrainPollInterval time.Duration
	Clock             func() time.Time
	NewID             func() string
	Logger            *slog.Logger
	Metrics           metrics.Sink
}

// SessionRegistry owns every live LoginSession. All state is confined to the
// goroutine running Run; the exported methods send commands to it and wait
// for the result, so no locking is needed around the session list.
type SessionRegistry struct {
	provider          core.AuthProvider
	completer         SessionCompleter
	notifier          OutcomeNotifier
	timeout           time.Duration
	drainPollInterval time.Duration
	callTimeout       time.Duration
	clock             func() time.Time
	newID             func() string
	logger            *slog.Logger
	metrics           metrics.Sink

	cmds    chan func()
	started chan struct{}
	stopped chan struct{}

	// Owned by the Run goroutine.
	sessions []*LoginSession
	draining bool
}

// NewSessionRegistry constructs a registry. Call Run before using it.
func NewSessionRegistry(opts SessionRegistryOptions) (*SessionRegistry, error) {
	if opts.Provider == nil {
		return nil, errors.New("AuthProvider is required")
	}
	if opts.Completer == nil {
		return nil, errors.New("SessionCompleter is required")
	}
	if opts.Timeout <= 0 {
		return nil, errors.New("session timeout must be positive")
	}
	if opts.DrainPollInterval <= 0 {
		opts.DrainPollInterval = time.Second
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 15 * time.Second
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

	return &SessionRegistry{
		provider:          opts.Provider,
		completer:         opts.Completer,
		notifier:          opts.Notifier,
		timeout:           opts.Timeout,
		drainPollInterval: opts.DrainPollInterval,
		callTimeout:       opts.CallTimeout,
		clock:             opts.Clock,
		newID:             opts.NewID,
		logger:            logger.With("component", "session_registry"),
		metrics:           opts.Metrics,
		cmds:              make(chan func()),
		started:           make(chan struct{}),
		stopped:           make(chan struct{}),
	}, nil
}

// Run executes registry commands until ctx is cancelled. It must be called exactly once.
// Returns nil on graceful shutdown.
func (r *SessionRegistry) Run(ctx context.Context) error {
	close(r.started)
	defer close(r.stopped)

	r.logger.InfoContext(ctx, "session registry started", "timeout", r.timeout)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "session registry stopping",
				"reason", ctx.Err(),
				"live_sessions", len(r.sessions),
			)
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case fn := <-r.cmds:
			fn()
		}
	}
}

// exec runs fn on the owner goroutine and waits for it to finish.
func (r *SessionRegistry) exec(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	cmd := func() {
		defer close(done)
		fn()
	}
	select {
	case r.cmds <- cmd:
	case <-r.stopped:
		return ErrRegistryStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// Once received, the owner always runs the command to completion.
	<-done
	return nil
}

// Admit registers a new session for requester. Rejections (draining, or a
// pending session for the same requester) are returned as an Admission value;
// the error is reserved for provider failures and registry shutdown.
func (r *SessionRegistry) Admit(ctx context.Context, requester string) (model.Admission, error) {
	var (
		adm    model.Admission
		admErr error
	)
	if err := r.exec(ctx, func() { adm, admErr = r.admit(ctx, requester) }); err != nil {
		return model.Admission{}, err
	}
	return adm, admErr
}

func (r *SessionRegistry) admit(ctx context.Context, requester string) (model.Admission, error) {
	if r.draining {
		r.countAdmission(string(model.AdmissionDraining))
		return model.Admission{Status: model.AdmissionDraining}, nil
	}
	for _, s := range r.sessions {
		if s.requester == requester && !s.state.IsTerminal() {
			r.countAdmission(string(model.AdmissionRejectedPending))
			return model.Admission{Status: model.AdmissionRejectedPending, SessionID: s.id}, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	s, err := startLoginSession(callCtx, r.provider, sessionParams{
		id:        r.newID(),
		requester: requester,
		now:       r.clock(),
		timeout:   r.timeout,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "login session not started", "requester", requester, "error", err)
		r.countAdmission(metrics.ResultError)
		return model.Admission{}, err
	}
	r.sessions = append(r.sessions, s)
	r.countAdmission(string(model.AdmissionAccepted))
	r.gaugeLive()

	r.logger.InfoContext(ctx, "login session admitted",
		"session_id", s.id,
		"requester", requester,
		"deadline", s.deadline,
	)
	return model.Admission{
		Status:       model.AdmissionAccepted,
		SessionID:    s.id,
		ChallengeURL: s.challengeURL,
		ExpiresAt:    s.deadline,
	}, nil
}

// Tick polls every pending session in registration order, expires sessions
// past their deadline, and delivers then removes every terminal session.
// It returns the number of sessions removed.
func (r *SessionRegistry) Tick(ctx context.Context, now time.Time) (int, error) {
	var removed int
	if err := r.exec(ctx, func() { removed = r.tick(ctx, now) }); err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *SessionRegistry) tick(ctx context.Context, now time.Time) int {
	for _, s := range r.sessions {
		r.advance(ctx, s, now)
	}

	kept := r.sessions[:0]
	removed := 0
	for _, s := range r.sessions {
		if !s.state.IsTerminal() {
			kept = append(kept, s)
			continue
		}
		r.observeTerminal(ctx, s)
		removed++
	}
	for i := len(kept); i < len(r.sessions); i++ {
		r.sessions[i] = nil
	}
	r.sessions = kept

	if removed > 0 {
		r.gaugeLive()
	}
	return removed
}

// advance handles one session, containing any panic to that session.
func (r *SessionRegistry) advance(ctx context.Context, s *LoginSession, now time.Time) {
	logger := r.logger.With("session_id", s.id, "requester", s.requester)
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "session poll panicked", "panic", fmt.Sprint(rec))
		}
	}()

	if s.expire(now) {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	s.poll(callCtx, r.provider, r.completer, logger)
}

func (r *SessionRegistry) observeTerminal(ctx context.Context, s *LoginSession) {
	outcome := s.Outcome()
	r.logger.InfoContext(ctx, "login session finished",
		"session_id", s.id,
		"requester", s.requester,
		"state", s.state,
		"bind_result", outcome.BindResult,
		"polls", s.polls,
	)
	if r.metrics != nil {
		r.metrics.Count("link.session_terminal", 1, map[string]string{"state": string(s.state)})
	}

	if r.notifier == nil {
		return
	}
	if err := r.notifier.NotifyOutcome(ctx, outcome); err != nil {
		r.logger.WarnContext(ctx, "session outcome notice dropped",
			"session_id", s.id,
			"requester", s.requester,
			"error", err,
		)
	}
}

// Drain stops admissions and waits until every live session has finished,
// re-checking the registry size every DrainPollInterval.
func (r *SessionRegistry) Drain(ctx context.Context) error {
	if err := r.exec(ctx, func() { r.draining = true }); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "session registry draining")

	ticker := time.NewTicker(r.drainPollInterval)
	defer ticker.Stop()
	for {
		n, err := r.Len(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			r.logger.InfoContext(ctx, "session registry drained")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Resume leaves draining mode.
func (r *SessionRegistry) Resume(ctx context.Context) error {
	return r.exec(ctx, func() { r.draining = false })
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len(ctx context.Context) (int, error) {
	var n int
	err := r.exec(ctx, func() { n = len(r.sessions) })
	return n, err
}

// Draining reports whether admissions are currently refused.
func (r *SessionRegistry) Draining(ctx context.Context) (bool, error) {
	var d bool
	err := r.exec(ctx, func() { d = r.draining })
	return d, err
}

// Sessions returns a snapshot of live sessions in registration order.
func (r *SessionRegistry) Sessions(ctx context.Context) ([]model.SessionInfo, error) {
	var out []model.SessionInfo
	err := r.exec(ctx, func() {
		out = make([]model.SessionInfo, 0, len(r.sessions))
		for _, s := range r.sessions {
			out = append(out, s.Info())
		}
	})
	return out, err
}

func (r *SessionRegistry) countAdmission(result string) {
	if r.metrics == nil {
		return
	}
	r.metrics.Count("link.session_admit", 1, map[string]string{"result": result})
}

func (r *SessionRegistry) gaugeLive() {
	if r.metrics == nil {
		return
	}
	r.metrics.Gauge("link.sessions_live", float64(len(r.sessions)), nil)
}
