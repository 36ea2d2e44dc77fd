package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/target/guardlink/internal/domain/model"
)

// MemberHandlers serves member registration and lookup.
type MemberHandlers struct {
	Svc MemberService
}

type putMemberRequest struct {
	DisplayName    string `json:"display_name"`
	IdentifyNumber string `json:"identify_number,omitempty"`
}

// Put registers the member named by the path or refreshes its profile fields.
// Binding, tier and roles are never changed here.
func (h *MemberHandlers) Put(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("member id is required")})
		return
	}
	var body putMemberRequest
	if !DecodeJSON(w, r, &body) {
		return
	}

	m, err := h.Svc.UpsertMember(r.Context(), model.UpsertMemberRequest{
		ID:             id,
		DisplayName:    body.DisplayName,
		IdentifyNumber: body.IdentifyNumber,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, m)
}

// Get returns one member record.
func (h *MemberHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("member id is required")})
		return
	}
	m, err := h.Svc.GetMember(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, m)
}
