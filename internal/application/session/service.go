package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/authcore-api/internal/application/company"
	"github.com/authcore-api/internal/application/credential"
	"github.com/authcore-api/internal/application/devicetrust"
	"github.com/authcore-api/internal/application/mfa"
	"github.com/authcore-api/internal/domain"
	"github.com/authcore-api/internal/pkg/id"
)

// Login outcome statuses.
const (
	StatusEstablished       = "established"
	StatusChallengeRequired = "challenge_required"
)

// SessionStore is the slice of the session repository the manager needs.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	TransitionToVerified(ctx context.Context, sessionID string, idleExpiresAt, absExpiresAt int64, data map[string]string) error
	ExtendIdle(ctx context.Context, sessionID string, idleExpiresAt int64) error
	TransitionToTerminal(ctx context.Context, sessionID string, to domain.SessionState) error
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
}

// UserStore is the slice of the user repository the manager needs.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type LoginRequest struct {
	Email      string
	Password   string
	RememberMe bool
	Source     string // web | mobile
	IP         string
	UserAgent  string
	// PriorSessionID is the session id the client presented before
	// authenticating (e.g. an anonymous or stale cookie). It is revoked and
	// never carried into the authenticated session.
	PriorSessionID string
	// DeviceTrustToken is the raw device_trust cookie value, if any.
	DeviceTrustToken string
}

type LoginResult struct {
	Status    string
	Session   *domain.Session
	Challenge *mfa.Challenge // set when Status == StatusChallengeRequired
}

type UpgradeRequest struct {
	SessionID    string
	Code         string
	RecoveryCode string
	// TrustDevice asks for a device-trust token so this device skips the
	// challenge next time.
	TrustDevice bool
	Fingerprint string
}

type UpgradeResult struct {
	Session        *domain.Session
	TrustToken     string // raw token for the device_trust cookie, "" if not requested
	TrustExpiresAt time.Time
}

// Service owns the session state machine. Every transition is a conditional
// write in the store, so concurrent requests against the same session resolve
// without in-process locks.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Upgrade(ctx context.Context, req UpgradeRequest) (*UpgradeResult, error)
	// Touch extends the idle window of a verified session, clamped to the
	// absolute expiry. A racing revoke wins silently. sess.IdleExpiresAt is
	// updated in place on success.
	Touch(ctx context.Context, sess *domain.Session) error
	// Revoke is idempotent: revoking a revoked or unknown session succeeds.
	Revoke(ctx context.Context, sessionID string) error
	// RevokeAllOthers revokes every live session of the user except exceptID
	// and returns how many it revoked.
	RevokeAllOthers(ctx context.Context, userID, exceptID string) (int, error)
	// GetValid loads a session and recomputes validity at time of use.
	// Terminal, idle-expired and absolutely-expired sessions all come back as
	// ErrSessionNotFound; expiry is additionally recorded best effort.
	GetValid(ctx context.Context, sessionID string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
}

type ServiceDeps struct {
	SessionRepo SessionStore
	UserRepo    UserStore
	Credentials credential.Service
	Mfa         mfa.Service
	DeviceTrust devicetrust.Service
	Companies   company.Service

	IdleDefault    time.Duration
	IdleRememberMe time.Duration
	AbsoluteMax    time.Duration
	PendingTTL     time.Duration
}

type service struct {
	sessionRepo SessionStore
	userRepo    UserStore
	credentials credential.Service
	mfaEngine   mfa.Service
	deviceTrust devicetrust.Service
	companies   company.Service

	idleDefault    time.Duration
	idleRememberMe time.Duration
	absoluteMax    time.Duration
	pendingTTL     time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		sessionRepo:    deps.SessionRepo,
		userRepo:       deps.UserRepo,
		credentials:    deps.Credentials,
		mfaEngine:      deps.Mfa,
		deviceTrust:    deps.DeviceTrust,
		companies:      deps.Companies,
		idleDefault:    deps.IdleDefault,
		idleRememberMe: deps.IdleRememberMe,
		absoluteMax:    deps.AbsoluteMax,
		pendingTTL:     deps.PendingTTL,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.credentials.Verify(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	// Whatever session id the client walked in with is dead from here on.
	// The authenticated session always gets a fresh id.
	if req.PriorSessionID != "" {
		if err := s.Revoke(ctx, req.PriorSessionID); err != nil {
			slog.Warn("failed to revoke pre-login session", "session_id", req.PriorSessionID, "err", err)
		}
	}

	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID: id.New(),
		UserID:    u.UserID,
		Source:    req.Source,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		Data:      map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
		User:      u,
	}
	if req.RememberMe {
		sess.Data[domain.SessionDataRememberMe] = "1"
	}

	active, err := s.companies.ResolveActive(ctx, sess, u)
	if err != nil {
		return nil, err
	}
	sess.ActiveCompanyID = active

	trusted := u.MfaEnabled && s.deviceTrust.Validate(ctx, u.UserID, req.DeviceTrustToken)
	if u.MfaEnabled && !trusted {
		// Pending session: short fuse, challenge outstanding.
		sess.State = domain.SessionPending
		sess.MfaVerified = false
		sess.Data[domain.SessionDataPendingMfa] = "1"
		sess.IdleExpiresAt = now.Add(s.pendingTTL).Unix()
		sess.AbsExpiresAt = sess.IdleExpiresAt
		if err := s.sessionRepo.Put(ctx, sess); err != nil {
			return nil, fmt.Errorf("create session: %w", domain.ErrStorage)
		}
		challenge, err := s.mfaEngine.Send(ctx, u.UserID)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Status: StatusChallengeRequired, Session: sess, Challenge: challenge}, nil
	}

	sess.State = domain.SessionVerified
	sess.MfaVerified = trusted
	sess.IdleExpiresAt, sess.AbsExpiresAt = s.expiryWindows(now, req.RememberMe)
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", domain.ErrStorage)
	}
	return &LoginResult{Status: StatusEstablished, Session: sess}, nil
}

func (s *service) Upgrade(ctx context.Context, req UpgradeRequest) (*UpgradeResult, error) {
	sess, err := s.sessionRepo.Get(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown session: %w", domain.ErrNoPendingMfa)
		}
		return nil, fmt.Errorf("load session: %w", domain.ErrStorage)
	}
	now := time.Now().UTC()
	if sess.State != domain.SessionPending || !sess.Alive(now) {
		return nil, fmt.Errorf("session not awaiting a challenge: %w", domain.ErrNoPendingMfa)
	}

	switch {
	case req.Code != "":
		if err := s.mfaEngine.Verify(ctx, sess.UserID, req.Code); err != nil {
			return nil, err
		}
	case req.RecoveryCode != "":
		if err := s.mfaEngine.VerifyRecovery(ctx, sess.UserID, req.RecoveryCode); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("no code submitted: %w", domain.ErrInvalidCode)
	}

	idle, abs := s.expiryWindows(now, sess.RememberMe())
	data := map[string]string{}
	for k, v := range sess.Data {
		if k != domain.SessionDataPendingMfa {
			data[k] = v
		}
	}
	if err := s.sessionRepo.TransitionToVerified(ctx, sess.SessionID, idle, abs, data); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// A concurrent upgrade or revoke got there first.
			return nil, fmt.Errorf("session already settled: %w", domain.ErrNoPendingMfa)
		}
		return nil, fmt.Errorf("verify session: %w", domain.ErrStorage)
	}
	sess.State = domain.SessionVerified
	sess.MfaVerified = true
	sess.IdleExpiresAt = idle
	sess.AbsExpiresAt = abs
	sess.Data = data
	sess.UpdatedAt = now

	if u, err := s.userRepo.Get(ctx, sess.UserID); err == nil {
		sess.User = u
	} else {
		// The session is already verified; the envelope just goes out
		// without the user block.
		slog.Warn("failed to load user for verified session", "user_id", sess.UserID, "err", err)
	}

	result := &UpgradeResult{Session: sess}
	if req.TrustDevice {
		raw, expiresAt, err := s.deviceTrust.Issue(ctx, sess.UserID, req.Fingerprint)
		if err != nil {
			// The session is already verified; losing the trust token only
			// costs the user a challenge next time.
			slog.Warn("failed to issue device trust token", "user_id", sess.UserID, "err", err)
		} else {
			result.TrustToken = raw
			result.TrustExpiresAt = expiresAt
		}
	}
	return result, nil
}

func (s *service) Touch(ctx context.Context, sess *domain.Session) error {
	now := time.Now().UTC()
	idle := now.Add(s.idleWindow(sess.RememberMe())).Unix()
	if idle > sess.AbsExpiresAt {
		idle = sess.AbsExpiresAt
	}
	if idle <= sess.IdleExpiresAt {
		return nil
	}
	if err := s.sessionRepo.ExtendIdle(ctx, sess.SessionID, idle); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Revoked (or otherwise settled) under us. The revoke wins.
			return nil
		}
		return fmt.Errorf("extend session: %w", domain.ErrStorage)
	}
	sess.IdleExpiresAt = idle
	return nil
}

func (s *service) Revoke(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.TransitionToTerminal(ctx, sessionID, domain.SessionRevoked); err != nil {
		return fmt.Errorf("revoke session: %w", domain.ErrStorage)
	}
	return nil
}

func (s *service) RevokeAllOthers(ctx context.Context, userID, exceptID string) (int, error) {
	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", domain.ErrStorage)
	}
	now := time.Now().UTC()
	revoked := 0
	for i := range sessions {
		sess := &sessions[i]
		if sess.SessionID == exceptID || !sess.Alive(now) {
			continue
		}
		if err := s.sessionRepo.TransitionToTerminal(ctx, sess.SessionID, domain.SessionRevoked); err != nil {
			return revoked, fmt.Errorf("revoke session %s: %w", sess.SessionID, domain.ErrStorage)
		}
		revoked++
	}
	return revoked, nil
}

func (s *service) GetValid(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("load session: %w", domain.ErrStorage)
	}
	now := time.Now().UTC()
	if sess.State.Terminal() {
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, sess.State, domain.ErrSessionNotFound)
	}
	if !sess.Alive(now) {
		// Lazy expiry: record it, but the answer does not depend on the
		// write landing (the TTL purge catches stragglers anyway).
		if err := s.sessionRepo.TransitionToTerminal(ctx, sessionID, domain.SessionExpired); err != nil {
			slog.Warn("failed to mark session expired", "session_id", sessionID, "err", err)
		}
		return nil, fmt.Errorf("session %s expired: %w", sessionID, domain.ErrSessionNotFound)
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", domain.ErrStorage)
	}
	if !u.Enable {
		return nil, fmt.Errorf("user disabled: %w", domain.ErrSessionNotFound)
	}
	sess.User = u
	return sess, nil
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", domain.ErrStorage)
	}
	return sessions, nil
}

func (s *service) idleWindow(rememberMe bool) time.Duration {
	if rememberMe {
		return s.idleRememberMe
	}
	return s.idleDefault
}

// expiryWindows computes idle and absolute expiry from now, clamping idle so
// idle_expires_at <= abs_expires_at always holds.
func (s *service) expiryWindows(now time.Time, rememberMe bool) (idle, abs int64) {
	abs = now.Add(s.absoluteMax).Unix()
	idle = now.Add(s.idleWindow(rememberMe)).Unix()
	if idle > abs {
		idle = abs
	}
	return idle, abs
}
