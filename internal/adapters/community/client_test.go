package community

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/guardlink/internal/core"
	apperrors "github.com/target/guardlink/internal/errors"
)

type recordedRequest struct {
	Path string
	Auth string
	Body map[string]any
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	code     int
	status   int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
	code, status := f.code, f.status
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "message": "msg", "data": map[string]any{}})
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/api/v3", BotToken: "secret", GuildID: "g1"})
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{GuildID: "g"})
	require.Error(t, err)
	_, err = NewClient(Config{BotToken: "t"})
	require.Error(t, err)
	_, err = NewClient(Config{BotToken: "t", GuildID: "g", BaseURL: "/relative"})
	require.Error(t, err)
}

func TestGrantAndRevoke(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	require.NoError(t, c.Grant(context.Background(), "m1", "123"))
	require.NoError(t, c.Revoke(context.Background(), "m1", "456"))

	require.Len(t, api.requests, 2)
	assert.Equal(t, "/api/v3/guild-role/grant", api.requests[0].Path)
	assert.Equal(t, "Bot secret", api.requests[0].Auth)
	assert.Equal(t, map[string]any{"guild_id": "g1", "user_id": "m1", "role_id": float64(123)}, api.requests[0].Body)
	assert.Equal(t, "/api/v3/guild-role/revoke", api.requests[1].Path)
	assert.Equal(t, float64(456), api.requests[1].Body["role_id"])
}

func TestGrantRejectsNonNumericRole(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	err := c.Grant(context.Background(), "m1", "captain")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, api.requests)
}

func TestSendTemporaryMessage(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	require.NoError(t, c.Send(context.Background(), core.Message{ChannelID: "c1", RecipientID: "m1", Content: "hi"}))
	require.NoError(t, c.Send(context.Background(), core.Message{ChannelID: "c1", Content: "all"}))

	require.Len(t, api.requests, 2)
	assert.Equal(t, "/api/v3/message/create", api.requests[0].Path)
	assert.Equal(t, "m1", api.requests[0].Body["temp_target_id"])
	assert.Equal(t, "c1", api.requests[0].Body["target_id"])
	assert.NotContains(t, api.requests[1].Body, "temp_target_id")
}

func TestAPIErrors(t *testing.T) {
	api := &fakeAPI{code: 40000}
	c := newTestClient(t, api)
	err := c.Grant(context.Background(), "m1", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 40000")

	api.code, api.status = 0, http.StatusInternalServerError
	err = c.Send(context.Background(), core.Message{ChannelID: "c1", Content: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))

	require.Error(t, c.Send(context.Background(), core.Message{Content: "no channel"}))
}
