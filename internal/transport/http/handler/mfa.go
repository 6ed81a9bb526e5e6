package handler

import (
	"net/http"

	"github.com/authcore-api/internal/application/mfa"
	"github.com/authcore-api/internal/transport/http/cookie"
	"github.com/authcore-api/internal/transport/http/middleware"
)

// MfaHandler manages the MFA enrollment lifecycle for the authenticated user.
type MfaHandler struct {
	svc     mfa.Service
	cookies *cookie.Writer
}

func NewMfaHandler(svc mfa.Service, cookies *cookie.Writer) *MfaHandler {
	return &MfaHandler{svc: svc, cookies: cookies}
}

// Enable turns MFA on and returns the recovery-code batch. The plaintext
// codes are shown here and never again.
func (h *MfaHandler) Enable(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	codes, err := h.svc.Enable(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecoveryCodesEnvelope{RecoveryCodes: codes})
}

// Disable turns MFA off. Recovery codes and trusted devices go with it, so
// the device-trust cookie is cleared too.
func (h *MfaHandler) Disable(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.svc.Disable(r.Context(), sess.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	h.cookies.ClearDeviceTrust(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "mfa disabled"})
}

// RegenerateRecoveryCodes replaces the recovery-code batch.
func (h *MfaHandler) RegenerateRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	codes, err := h.svc.RegenerateRecoveryCodes(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecoveryCodesEnvelope{RecoveryCodes: codes})
}
