package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/authcore-api/internal/application/session"
	"github.com/authcore-api/internal/domain"
	jwtinfra "github.com/authcore-api/internal/infrastructure/jwt"
	"github.com/authcore-api/internal/transport/http/cookie"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionAuth validates the caller's session and injects it into the request
// context. The session id comes from the sid cookie; mobile clients may carry
// it in an RS256 bearer token instead (when a provider is configured). The
// durable session record is revalidated on every request, so the bearer token
// is only an envelope.
//
// Each authenticated request slides the idle window forward; when it moves,
// cookie callers get the sid cookie reissued with the new MaxAge.
func SessionAuth(svc session.Service, provider *jwtinfra.Provider, ck *cookie.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromCookie := true
			sid := cookie.SessionID(r)
			if sid == "" && provider != nil {
				if bearer, ok := bearerToken(r); ok {
					claims, err := provider.Verify(bearer)
					if err != nil {
						writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
						return
					}
					sid = claims.SessionID
					fromCookie = false
				}
			}
			if sid == "" {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := svc.GetValid(r.Context(), sid)
			if err != nil || sess.State != domain.SessionVerified {
				if fromCookie {
					ck.ClearSession(w)
				}
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			prevIdle := sess.IdleExpiresAt
			if err := svc.Touch(r.Context(), sess); err != nil {
				// The session is still valid for this request; only the
				// sliding window write failed.
				slog.Warn("failed to touch session", "session_id", sess.SessionID, "err", err)
			}
			if fromCookie && sess.IdleExpiresAt != prevIdle {
				ck.SetSession(w, sess.SessionID, sess.IdleExpiresAt)
			}

			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the authenticated session from the request context.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(SessionKey).(*domain.Session)
	return s, ok
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(h, "Bearer "), true
}
