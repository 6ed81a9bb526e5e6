package handler

import (
	"net/http"

	"github.com/authcore-api/internal/application/company"
	"github.com/authcore-api/internal/transport/http/middleware"
)

// CompanyHandler lists the companies the caller may operate in.
type CompanyHandler struct {
	svc company.Service
}

func NewCompanyHandler(svc company.Service) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	grants, err := h.svc.ListAccessible(r.Context(), sess, sess.User)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"companies":  grants,
		"can_switch": h.svc.CanSwitch(r.Context(), sess.User),
	})
}
