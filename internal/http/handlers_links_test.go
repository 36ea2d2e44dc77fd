package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
)

func serveLinks(t *testing.T, links *fakeLinks, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(RouterServices{Links: links})
	req := httptest.NewRequest(method, "/api/link-sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateLinkSessionAccepted(t *testing.T) {
	expires := time.Date(2024, 1, 1, 12, 2, 1, 0, time.UTC)
	links := &fakeLinks{admission: model.Admission{
		Status:       model.AdmissionAccepted,
		SessionID:    "sess-1",
		ChallengeURL: "https://passport.example/qr?k=abc",
		ExpiresAt:    expires,
	}}

	rec := serveLinks(t, links, http.MethodPost, `{"member_id":" member-a "}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got model.Admission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "https://passport.example/qr?k=abc", got.ChallengeURL)
	assert.True(t, expires.Equal(got.ExpiresAt))
	assert.Equal(t, []string{"member-a"}, links.requesters)
}

func TestCreateLinkSessionRejections(t *testing.T) {
	tests := []struct {
		name      string
		admission model.Admission
		err       error
		status    int
		errCode   string
	}{
		{
			name:      "pending session for requester",
			admission: model.Admission{Status: model.AdmissionRejectedPending, SessionID: "sess-0"},
			status:    http.StatusConflict,
			errCode:   "already_pending",
		},
		{
			name:      "registry draining",
			admission: model.Admission{Status: model.AdmissionDraining},
			status:    http.StatusServiceUnavailable,
			errCode:   "draining",
		},
		{
			name:    "provider unavailable",
			err:     apperrors.Unavailable(errors.New("dial tcp: timeout"), "issue login token"),
			status:  http.StatusBadGateway,
			errCode: "upstream_unavailable",
		},
		{
			name:    "registry stopped",
			err:     errors.New("session registry stopped"),
			status:  http.StatusInternalServerError,
			errCode: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveLinks(t, &fakeLinks{admission: tt.admission, admitErr: tt.err}, http.MethodPost, `{"member_id":"member-a"}`)

			require.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.errCode, body["error"])
		})
	}
}

func TestCreateLinkSessionDrainingSetsRetryAfter(t *testing.T) {
	rec := serveLinks(t, &fakeLinks{admission: model.Admission{Status: model.AdmissionDraining}}, http.MethodPost, `{"member_id":"m"}`)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestCreateLinkSessionValidatesBody(t *testing.T) {
	tests := map[string]string{
		"missing member": `{}`,
		"blank member":   `{"member_id":"   "}`,
		"unknown field":  `{"member_id":"m","tier":3}`,
		"malformed json": `{"member_id":`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			links := &fakeLinks{}
			rec := serveLinks(t, links, http.MethodPost, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, links.requesters)
		})
	}
}

func TestListLinkSessions(t *testing.T) {
	links := &fakeLinks{sessions: []model.SessionInfo{
		{ID: "s1", Requester: "a", State: model.SessionPending, Polls: 2},
		{ID: "s2", Requester: "b", State: model.SessionPending},
	}}

	rec := serveLinks(t, links, http.MethodGet, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Sessions []model.SessionInfo `json:"sessions"`
		Count    int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "s1", body.Sessions[0].ID)
	assert.Equal(t, 2, body.Sessions[0].Polls)
}

func TestLinkRoutesAbsentWithoutService(t *testing.T) {
	router := NewRouter(RouterServices{})
	req := httptest.NewRequest(http.MethodPost, "/api/link-sessions", strings.NewReader(`{"member_id":"m"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
