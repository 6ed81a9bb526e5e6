package http

import (
	"net/http"

	"github.com/authcore-api/internal/application/company"
	"github.com/authcore-api/internal/application/credential"
	"github.com/authcore-api/internal/application/devicetrust"
	"github.com/authcore-api/internal/application/mfa"
	"github.com/authcore-api/internal/application/session"
	"github.com/authcore-api/internal/config"
	"github.com/authcore-api/internal/transport/http/cookie"
	"github.com/authcore-api/internal/transport/http/handler"
	appmiddleware "github.com/authcore-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	cookies := &cookie.Writer{Secure: cfg.Production()}

	credentialSvc := credential.NewService(credential.ServiceDeps{
		UserRepo:  deps.UserRepo,
		Threshold: cfg.LockoutThreshold,
		Window:    cfg.LockoutWindow,
		Lockout:   cfg.LockoutDuration,
	})
	deviceTrustSvc := devicetrust.NewService(devicetrust.ServiceDeps{
		TrustRepo: deps.DeviceTrustRepo,
		TTL:       cfg.DeviceTrustTTL,
	})
	mfaSvc := mfa.NewService(mfa.ServiceDeps{
		CodeRepo:          deps.MfaCodeRepo,
		RecoveryRepo:      deps.RecoveryCodeRepo,
		UserRepo:          deps.UserRepo,
		TrustRevoker:      deviceTrustSvc,
		Mailer:            deps.Mailer,
		SMSSender:         deps.SMSSender,
		CodeTTL:           cfg.MfaCodeTTL,
		RecoveryCodeCount: cfg.MfaRecoveryCodeCount,
		EchoCode:          cfg.MfaEchoCode,
	})
	companySvc := company.NewService(company.ServiceDeps{
		GrantRepo:   deps.GrantRepo,
		CompanyRepo: deps.CompanyRepo,
		SessionRepo: deps.SessionRepo,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo:    deps.SessionRepo,
		UserRepo:       deps.UserRepo,
		Credentials:    credentialSvc,
		Mfa:            mfaSvc,
		DeviceTrust:    deviceTrustSvc,
		Companies:      companySvc,
		IdleDefault:    cfg.SessionIdleDefault,
		IdleRememberMe: cfg.SessionIdleRememberMe,
		AbsoluteMax:    cfg.SessionAbsoluteMax,
		PendingTTL:     cfg.SessionPendingTTL,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(sessionSvc, deps.JWTProvider, cookies)
	sessionH := handler.NewSessionHandler(sessionSvc, companySvc)
	mfaH := handler.NewMfaHandler(mfaSvc, cookies)
	companyH := handler.NewCompanyHandler(companySvc)

	authMw := appmiddleware.SessionAuth(sessionSvc, deps.JWTProvider, cookies)

	// 5 requests/second, burst of 10 — applied to credential-bearing public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/mfa/verify", authH.MfaVerify)
		r.With(sensitiveRL.Limit).Post("/auth/mfa/recovery", authH.MfaRecovery)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/logout", authH.Logout)

			r.Get("/sessions", sessionH.List)
			r.Post("/sessions/revoke-others", sessionH.RevokeOthers)
			r.Put("/sessions/company", sessionH.SwitchCompany)
			r.Delete("/sessions/{id}", sessionH.Revoke)

			r.Get("/companies", companyH.List)

			r.Post("/mfa/enable", mfaH.Enable)
			r.Delete("/mfa", mfaH.Disable)
			r.Post("/mfa/recovery-codes", mfaH.RegenerateRecoveryCodes)
		})
	})

	return r
}
