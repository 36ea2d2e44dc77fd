package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
)

func serveRoster(roster *fakeRoster, method, path string) *httptest.ResponseRecorder {
	router := NewRouter(RouterServices{Roster: roster, Snapshots: roster})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRosterRunReturnsReport(t *testing.T) {
	roster := &fakeRoster{report: model.RosterCycleReport{
		Snapshot:  model.SnapshotSummary{CycleID: "c1", TotalCount: 40, Collected: 40, SuccessRatio: 1},
		Reconcile: model.ReconcileSummary{Examined: 12, Changed: 3, Granted: 2, Revoked: 1},
		Elapsed:   90 * time.Second,
	}}

	rec := serveRoster(roster, http.MethodPost, "/api/roster/run")

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.RosterCycleReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "c1", got.Snapshot.CycleID)
	assert.Equal(t, 3, got.Reconcile.Changed)
	assert.NoError(t, roster.ctxErr)
}

func TestRosterRunFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		errCode string
	}{
		{
			name:    "first page unavailable",
			err:     apperrors.FirstPageFailure(errors.New("status 412")),
			status:  http.StatusBadGateway,
			errCode: "first_page_failure",
		},
		{
			name:    "deadline",
			err:     context.DeadlineExceeded,
			status:  http.StatusGatewayTimeout,
			errCode: "timeout",
		},
		{
			name:    "store failure",
			err:     errors.New("reconcile: connection reset"),
			status:  http.StatusInternalServerError,
			errCode: "internal_error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveRoster(&fakeRoster{runErr: tt.err}, http.MethodPost, "/api/roster/run")
			require.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.errCode, body["error"])
		})
	}
}

func TestRosterRunSurvivesClientDisconnect(t *testing.T) {
	roster := &fakeRoster{}
	h := &RosterHandlers{Runner: roster}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/roster/run", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.Run(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, roster.ctxErr)
}

func TestRosterSnapshotSummary(t *testing.T) {
	fetched := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	roster := &fakeRoster{snapshot: &model.RosterSnapshot{
		CycleID:    "c9",
		FetchedAt:  fetched,
		TotalPages: 3,
		TotalCount: 4,
		LostPages:  []int{3},
		Entries: []model.RosterEntry{
			{AccountID: 1, Tier: 1}, {AccountID: 2, Tier: 3}, {AccountID: 3, Tier: 3},
		},
	}}

	rec := serveRoster(roster, http.MethodGet, "/api/roster/snapshot")

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.SnapshotSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "c9", got.CycleID)
	assert.Equal(t, 3, got.Collected)
	assert.Equal(t, []int{3}, got.LostPages)
	assert.InDelta(t, 0.75, got.SuccessRatio, 1e-9)
	assert.NotContains(t, rec.Body.String(), "entries")
}

func TestRosterSnapshotMissing(t *testing.T) {
	rec := serveRoster(&fakeRoster{}, http.MethodGet, "/api/roster/snapshot")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
