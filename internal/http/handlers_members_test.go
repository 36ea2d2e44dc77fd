package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
)

func serveMembers(members *fakeMembers, method, path, body string) *httptest.ResponseRecorder {
	router := NewRouter(RouterServices{Members: members})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestPutMemberUsesPathID(t *testing.T) {
	members := &fakeMembers{}

	rec := serveMembers(members, http.MethodPut, "/api/members/1234", `{"display_name":"Lark","identify_number":"0042"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "1234", got.ID)
	assert.Equal(t, "Lark", got.DisplayName)
	assert.Equal(t, "0042", got.IdentifyNumber)
}

func TestPutMemberRejectsBindingFields(t *testing.T) {
	members := &fakeMembers{}

	rec := serveMembers(members, http.MethodPut, "/api/members/1234", `{"display_name":"Lark","external_account_id":42}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, members.members)
}

func TestPutMemberValidationError(t *testing.T) {
	members := &fakeMembers{err: apperrors.Validation("display name cannot exceed 255 characters")}

	rec := serveMembers(members, http.MethodPut, "/api/members/1234", `{"display_name":"x"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_failed", body["error"])
	assert.Contains(t, body["message"], "255")
}

func TestGetMember(t *testing.T) {
	bound := int64(42)
	members := &fakeMembers{members: map[string]*model.Member{
		"1234": {ID: "1234", DisplayName: "Lark", ExternalAccountID: &bound, Tier: 2, Roles: model.ParseRoleSet("r-bound r-2")},
	}}

	rec := serveMembers(members, http.MethodGet, "/api/members/1234", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.ExternalAccountID)
	assert.Equal(t, int64(42), *got.ExternalAccountID)
	assert.Equal(t, 2, got.Tier)
}

func TestGetMemberErrors(t *testing.T) {
	tests := []struct {
		name    string
		members *fakeMembers
		status  int
	}{
		{name: "not found", members: &fakeMembers{}, status: http.StatusNotFound},
		{name: "store failure", members: &fakeMembers{err: errors.New("conn refused")}, status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveMembers(tt.members, http.MethodGet, "/api/members/nobody", "")
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "conn refused")
		})
	}
}
