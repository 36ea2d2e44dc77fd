package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/target/guardlink/internal/errors"
)

const defaultRosterRunTimeout = 10 * time.Minute

// RosterHandlers serves the manual roster trigger and snapshot metadata.
type RosterHandlers struct {
	Runner     RosterRunner
	Snapshots  SnapshotReader
	RunTimeout time.Duration
	Logger     *slog.Logger
}

// Run executes one roster cycle synchronously and returns its report. The
// cycle is detached from the client connection so a disconnect does not
// abort reconciliation half way.
func (h *RosterHandlers) Run(w http.ResponseWriter, r *http.Request) {
	timeout := h.RunTimeout
	if timeout <= 0 {
		timeout = defaultRosterRunTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
	defer cancel()

	report, err := h.Runner.RunOnce(ctx)
	if err != nil {
		loggerOrDefault(h.Logger).WarnContext(r.Context(), "manual roster run failed", "error", err)
		if apperrors.IsFirstPageFailure(err) {
			WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "first_page_failure", Err: err})
			return
		}
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// Snapshot returns the latest snapshot metadata, without entries.
func (h *RosterHandlers) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Snapshots.LatestSnapshot(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if snap == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("no roster snapshot has been stored yet"),
		})
		return
	}
	WriteJSON(w, http.StatusOK, snap.Summary())
}
