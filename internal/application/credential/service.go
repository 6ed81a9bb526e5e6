package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/authcore-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the email is unknown so that a lookup
// miss costs the same as a wrong password. Hash of an unguessable sentinel.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// UserStore is the slice of the user repository the verifier needs.
// RecordFailedAttempt must count concurrent failures individually (a
// conditional or atomic write, not read-modify-write) and return the attempt
// count inside the window starting at windowStart.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	RecordFailedAttempt(ctx context.Context, userID string, now, windowStart int64) (int, error)
	Lock(ctx context.Context, userID string, lockedUntil int64) error
	ResetLockout(ctx context.Context, userID string) error
}

// Service checks email+password credentials and tracks lockout.
type Service interface {
	// Verify returns the user on success, domain.ErrAccountLocked while a
	// lockout is active (without touching the password hash), and
	// domain.ErrInvalidCredentials otherwise. Unknown email and wrong
	// password are indistinguishable to the caller.
	Verify(ctx context.Context, email, password string) (*domain.User, error)
}

type ServiceDeps struct {
	UserRepo  UserStore
	Threshold int           // consecutive failures before lockout
	Window    time.Duration // rolling window the failures must fall within
	Lockout   time.Duration // how long the account stays locked
}

type service struct {
	userRepo  UserStore
	threshold int
	window    time.Duration
	lockout   time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo:  deps.UserRepo,
		threshold: deps.Threshold,
		window:    deps.Window,
		lockout:   deps.Lockout,
	}
}

func (s *service) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	now := time.Now().UTC()

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Burn a hash comparison so unknown emails are not faster to
			// probe than wrong passwords.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, fmt.Errorf("verify credentials: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", domain.ErrStorage)
	}

	// A locked account short-circuits before the password check so the
	// response carries no timing signal about the stored hash.
	if u.Locked(now) {
		return nil, fmt.Errorf("locked until %d: %w", u.LockedUntil, domain.ErrAccountLocked)
	}

	if !u.Enable {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, fmt.Errorf("account disabled: %w", domain.ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, s.recordFailure(ctx, u, now)
	}

	if u.FailedAttempts > 0 || u.LockedUntil > 0 {
		if err := s.userRepo.ResetLockout(ctx, u.UserID); err != nil {
			slog.Warn("failed to reset lockout counters", "user_id", u.UserID, "err", err)
		}
	}
	return u, nil
}

// recordFailure advances the rolling failure window and locks the account
// when the threshold is reached. The attempt that trips the threshold is
// already answered with ErrAccountLocked. Counting happens in the store so
// concurrent failures are not collapsed by a stale in-memory counter.
func (s *service) recordFailure(ctx context.Context, u *domain.User, now time.Time) error {
	windowStart := now.Add(-s.window).Unix()
	attempts, err := s.userRepo.RecordFailedAttempt(ctx, u.UserID, now.Unix(), windowStart)
	if err != nil {
		slog.Warn("failed to record login failure", "user_id", u.UserID, "err", err)
		return fmt.Errorf("password mismatch: %w", domain.ErrInvalidCredentials)
	}

	if attempts >= s.threshold {
		if err := s.userRepo.Lock(ctx, u.UserID, now.Add(s.lockout).Unix()); err != nil {
			slog.Warn("failed to lock account", "user_id", u.UserID, "err", err)
		}
		return fmt.Errorf("failure threshold reached: %w", domain.ErrAccountLocked)
	}
	return fmt.Errorf("password mismatch: %w", domain.ErrInvalidCredentials)
}
