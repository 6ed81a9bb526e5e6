package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/authcore-api/internal/application/company"
	"github.com/authcore-api/internal/application/session"
	"github.com/authcore-api/internal/pkg/validate"
	"github.com/authcore-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// SessionHandler exposes session introspection, revocation and company
// switching for the authenticated user.
type SessionHandler struct {
	svc       session.Service
	companies company.Service
}

func NewSessionHandler(svc session.Service, companies company.Service) *SessionHandler {
	return &SessionHandler{svc: svc, companies: companies}
}

// sessionInfo is the list-view shape of a session; terminal and expired
// entries are filtered out before it is built.
type sessionInfo struct {
	SessionID       string    `json:"id"`
	Current         bool      `json:"current"`
	Source          string    `json:"source"`
	ActiveCompanyID string    `json:"active_company_id,omitempty"`
	IP              string    `json:"ip,omitempty"`
	UserAgent       string    `json:"user_agent,omitempty"`
	CreatedAt       time.Time `json:"created"`
	IdleExpiresAt   int64     `json:"idle_expires_at"`
}

// List returns the caller's live sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	sessions, err := h.svc.ListByUser(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	now := time.Now()
	out := make([]sessionInfo, 0, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		if !s.Alive(now) {
			continue
		}
		out = append(out, sessionInfo{
			SessionID:       s.SessionID,
			Current:         s.SessionID == sess.SessionID,
			Source:          s.Source,
			ActiveCompanyID: s.ActiveCompanyID,
			IP:              s.IP,
			UserAgent:       s.UserAgent,
			CreatedAt:       s.CreatedAt,
			IdleExpiresAt:   s.IdleExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": out})
}

// Revoke ends one of the caller's own sessions by id.
func (h *SessionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	targetID := chi.URLParam(r, "id")

	// Ownership check: the target must be one of the caller's sessions.
	sessions, err := h.svc.ListByUser(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	owned := false
	for i := range sessions {
		if sessions[i].SessionID == targetID {
			owned = true
			break
		}
	}
	if !owned {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.svc.Revoke(r.Context(), targetID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "session revoked"})
}

// RevokeOthers ends every session of the caller except the current one.
func (h *SessionHandler) RevokeOthers(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	n, err := h.svc.RevokeAllOthers(r.Context(), sess.UserID, sess.SessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"revoked": n})
}

type switchCompanyRequest struct {
	CompanyID string `json:"company_id" validate:"required"`
}

// SwitchCompany changes the active company of the current session.
func (h *SessionHandler) SwitchCompany(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req switchCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.companies.Switch(r.Context(), sess, sess.User, req.CompanyID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active_company_id": sess.ActiveCompanyID})
}
