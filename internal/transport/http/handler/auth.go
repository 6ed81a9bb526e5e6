package handler

import (
	"encoding/json"
	"net/http"

	"github.com/authcore-api/internal/application/session"
	"github.com/authcore-api/internal/domain"
	jwtinfra "github.com/authcore-api/internal/infrastructure/jwt"
	"github.com/authcore-api/internal/pkg/validate"
	"github.com/authcore-api/internal/transport/http/cookie"
	"github.com/authcore-api/internal/transport/http/middleware"
)

// AuthHandler handles login, MFA upgrade and logout.
type AuthHandler struct {
	svc     session.Service
	jwt     *jwtinfra.Provider // nil when the mobile bearer channel is off
	cookies *cookie.Writer
}

func NewAuthHandler(svc session.Service, jwt *jwtinfra.Provider, cookies *cookie.Writer) *AuthHandler {
	return &AuthHandler{svc: svc, jwt: jwt, cookies: cookies}
}

type loginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
	Source     string `json:"source" validate:"omitempty,oneof=web mobile"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Source == "" {
		req.Source = domain.SourceWeb
	}

	result, err := h.svc.Login(r.Context(), session.LoginRequest{
		Email:            req.Email,
		Password:         req.Password,
		RememberMe:       req.RememberMe,
		Source:           req.Source,
		IP:               r.RemoteAddr,
		UserAgent:        r.UserAgent(),
		PriorSessionID:   cookie.SessionID(r),
		DeviceTrustToken: cookie.DeviceTrust(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.cookies.SetSession(w, result.Session.SessionID, result.Session.IdleExpiresAt)

	if result.Status == session.StatusChallengeRequired {
		writeJSON(w, http.StatusAccepted, AuthEnvelope{
			Status:    result.Status,
			Challenge: result.Challenge,
		})
		return
	}
	writeJSON(w, http.StatusOK, h.established(result.Session))
}

type mfaVerifyRequest struct {
	Code        string `json:"code" validate:"required,len=6,numeric"`
	TrustDevice bool   `json:"trust_device"`
	Fingerprint string `json:"fingerprint"`
}

// MfaVerify upgrades a pending session with a one-time code.
func (h *AuthHandler) MfaVerify(w http.ResponseWriter, r *http.Request) {
	var req mfaVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.upgrade(w, r, session.UpgradeRequest{
		SessionID:   cookie.SessionID(r),
		Code:        req.Code,
		TrustDevice: req.TrustDevice,
		Fingerprint: req.Fingerprint,
	})
}

type mfaRecoveryRequest struct {
	RecoveryCode string `json:"recovery_code" validate:"required"`
}

// MfaRecovery upgrades a pending session with a single-use recovery code.
func (h *AuthHandler) MfaRecovery(w http.ResponseWriter, r *http.Request) {
	var req mfaRecoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.upgrade(w, r, session.UpgradeRequest{
		SessionID:    cookie.SessionID(r),
		RecoveryCode: req.RecoveryCode,
	})
}

func (h *AuthHandler) upgrade(w http.ResponseWriter, r *http.Request, req session.UpgradeRequest) {
	if req.SessionID == "" {
		writeError(w, http.StatusUnauthorized, "authentication failed")
		return
	}
	result, err := h.svc.Upgrade(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.cookies.SetSession(w, result.Session.SessionID, result.Session.IdleExpiresAt)
	if result.TrustToken != "" {
		h.cookies.SetDeviceTrust(w, result.TrustToken, result.TrustExpiresAt)
	}
	writeJSON(w, http.StatusOK, h.established(result.Session))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.svc.Revoke(r.Context(), sess.SessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	h.cookies.ClearSession(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

// established builds the success envelope, adding a bearer token for mobile
// clients when the signing key pair is configured.
func (h *AuthHandler) established(sess *domain.Session) AuthEnvelope {
	env := AuthEnvelope{
		Status:  session.StatusEstablished,
		Session: sess,
		User:    sess.User,
	}
	if h.jwt != nil && sess.Source == domain.SourceMobile {
		if bearer, err := h.jwt.Sign(sess.SessionID); err == nil {
			env.Bearer = bearer
		}
	}
	return env
}
