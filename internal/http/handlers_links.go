package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/target/guardlink/internal/domain/model"
)

// LinkHandlers serves the account-link session endpoints.
type LinkHandlers struct {
	Svc    LinkSessionService
	Logger *slog.Logger
}

type createLinkSessionRequest struct {
	MemberID string `json:"member_id"`
}

// Create admits a login session for the requesting member.
//
// 201 with the challenge when admitted, 409 when the member already has a
// pending session, 503 while the registry drains, 502 when the provider
// could not issue a challenge.
func (h *LinkHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createLinkSessionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.MemberID = strings.TrimSpace(req.MemberID)
	if req.MemberID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation_failed",
			Err:     errors.New("member_id is required"),
		})
		return
	}

	adm, err := h.Svc.Admit(r.Context(), req.MemberID)
	if err != nil {
		loggerOrDefault(h.Logger).WarnContext(r.Context(), "link session admission failed", "requester", req.MemberID, "error", err)
		writeServiceError(w, err)
		return
	}

	switch adm.Status {
	case model.AdmissionAccepted:
		WriteJSON(w, http.StatusCreated, adm)
	case model.AdmissionRejectedPending:
		WriteJSON(w, http.StatusConflict, map[string]string{
			"error":      string(adm.Status),
			"session_id": adm.SessionID,
		})
	case model.AdmissionDraining:
		w.Header().Set("Retry-After", "60")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": string(adm.Status)})
	default:
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error"})
	}
}

// List returns the live sessions in registration order.
func (h *LinkHandlers) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Svc.Sessions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"sessions": sessions, "count": len(sessions)})
}
