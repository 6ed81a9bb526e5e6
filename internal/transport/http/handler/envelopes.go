package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authcore-api/internal/application/mfa"
	"github.com/authcore-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login and MFA upgrade responses.
type AuthEnvelope struct {
	Status    string          `json:"status"` // established | challenge_required
	Bearer    string          `json:"Bearer,omitempty"`
	Session   *domain.Session `json:"session,omitempty"`
	User      *domain.User    `json:"user,omitempty"`
	Challenge *mfa.Challenge  `json:"challenge,omitempty"`
}

// RecoveryCodesEnvelope carries a freshly generated recovery-code batch. The
// plaintext codes appear here exactly once.
type RecoveryCodesEnvelope struct {
	RecoveryCodes []string `json:"recovery_codes"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeDomainError maps domain sentinel errors onto HTTP statuses with
// deliberately flat messages: credential, code and session failures all read
// the same to the caller so the API leaks nothing about which part failed.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountLocked):
		writeError(w, http.StatusLocked, "account temporarily locked")
	case errors.Is(err, domain.ErrNoActiveCompanies):
		writeError(w, http.StatusForbidden, "no active companies")
	case errors.Is(err, domain.ErrCompanyAccessDenied):
		writeError(w, http.StatusForbidden, "company access denied")
	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusGone, "code expired")
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrInvalidRecoveryCode),
		errors.Is(err, domain.ErrNoPendingMfa),
		errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
