// Package httpx exposes the guardlink ops and admin API.
package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/guardlink/internal/domain/model"
)

// LinkSessionService admits and lists account-link login sessions.
type LinkSessionService interface {
	Admit(ctx context.Context, requester string) (model.Admission, error)
	Sessions(ctx context.Context) ([]model.SessionInfo, error)
}

// RosterRunner runs one ingestion plus reconciliation cycle.
type RosterRunner interface {
	RunOnce(ctx context.Context) (model.RosterCycleReport, error)
}

// SnapshotReader reads the cached roster snapshot.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context) (*model.RosterSnapshot, error)
}

// MemberService registers and reads community members.
type MemberService interface {
	UpsertMember(ctx context.Context, req model.UpsertMemberRequest) (*model.Member, error)
	GetMember(ctx context.Context, id string) (*model.Member, error)
}

// RouterServices holds the services needed by the HTTP router. Nil services
// leave their routes unregistered.
type RouterServices struct {
	Links     LinkSessionService
	Roster    RosterRunner
	Snapshots SnapshotReader
	Members   MemberService
	// Metrics serves the Prometheus exposition at /metrics.
	Metrics http.Handler
	// RosterRunTimeout bounds a synchronous roster run. Zero means 10 minutes.
	RosterRunTimeout time.Duration
	Logger           *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// GET patterns also match HEAD.
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	if services.Links != nil {
		h := &LinkHandlers{Svc: services.Links, Logger: logger}
		mux.HandleFunc("POST /api/link-sessions", h.Create)
		mux.HandleFunc("GET /api/link-sessions", h.List)
	}

	if services.Roster != nil || services.Snapshots != nil {
		h := &RosterHandlers{
			Runner:     services.Roster,
			Snapshots:  services.Snapshots,
			RunTimeout: services.RosterRunTimeout,
			Logger:     logger,
		}
		if services.Roster != nil {
			mux.HandleFunc("POST /api/roster/run", h.Run)
		}
		if services.Snapshots != nil {
			mux.HandleFunc("GET /api/roster/snapshot", h.Snapshot)
		}
	}

	if services.Members != nil {
		h := &MemberHandlers{Svc: services.Members}
		mux.HandleFunc("PUT /api/members/{id}", h.Put)
		mux.HandleFunc("GET /api/members/{id}", h.Get)
	}

	return mux
}
