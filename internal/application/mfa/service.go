package mfa

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/authcore-api/internal/domain"
	"github.com/authcore-api/internal/infrastructure/smtp"
	snsinfra "github.com/authcore-api/internal/infrastructure/sns"
	"github.com/authcore-api/internal/pkg/background"
	pkgtoken "github.com/authcore-api/internal/pkg/token"
)

// recoveryAlphabet avoids ambiguous characters (0/O, 1/I/L).
const recoveryAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeStore is the slice of the MFA-code repository the engine needs.
type CodeStore interface {
	Put(ctx context.Context, c *domain.MfaCode) error
	Get(ctx context.Context, userID string) (*domain.MfaCode, error)
	Consume(ctx context.Context, userID, codeHash string) error
	Delete(ctx context.Context, userID string) error
}

// RecoveryStore is the slice of the recovery-code repository the engine needs.
type RecoveryStore interface {
	Put(ctx context.Context, c *domain.RecoveryCode) error
	Consume(ctx context.Context, userID, codeHash string) error
	DeleteAll(ctx context.Context, userID string) error
}

// UserStore is the slice of the user repository the engine needs.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetMfaEnabled(ctx context.Context, userID string, enabled bool) error
}

// TrustRevoker invalidates all device-trust tokens for a user; disabling MFA
// must take recognized devices down with it.
type TrustRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

// Challenge is the result of issuing an MFA code.
type Challenge struct {
	ExpiresIn int    `json:"expires_in"` // seconds
	Code      string `json:"code,omitempty"`
}

// Service issues and verifies one-time codes and recovery codes and manages
// the MFA enable/disable lifecycle.
type Service interface {
	Send(ctx context.Context, userID string) (*Challenge, error)
	Verify(ctx context.Context, userID, code string) error
	VerifyRecovery(ctx context.Context, userID, recoveryCode string) error
	Enable(ctx context.Context, userID string) ([]string, error)
	Disable(ctx context.Context, userID string) error
	RegenerateRecoveryCodes(ctx context.Context, userID string) ([]string, error)
}

type ServiceDeps struct {
	CodeRepo     CodeStore
	RecoveryRepo RecoveryStore
	UserRepo     UserStore
	TrustRevoker TrustRevoker
	Mailer       smtp.Mailer
	SMSSender    snsinfra.SMSSender

	CodeTTL           time.Duration
	RecoveryCodeCount int
	// EchoCode returns the raw code in Send results. Test-only switch,
	// defaults off; never derived from the environment name.
	EchoCode bool
}

type service struct {
	codeRepo     CodeStore
	recoveryRepo RecoveryStore
	userRepo     UserStore
	trustRevoker TrustRevoker
	mailer       smtp.Mailer
	smsSender    snsinfra.SMSSender

	codeTTL       time.Duration
	recoveryCount int
	echoCode      bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		codeRepo:      deps.CodeRepo,
		recoveryRepo:  deps.RecoveryRepo,
		userRepo:      deps.UserRepo,
		trustRevoker:  deps.TrustRevoker,
		mailer:        deps.Mailer,
		smsSender:     deps.SMSSender,
		codeTTL:       deps.CodeTTL,
		recoveryCount: deps.RecoveryCodeCount,
		echoCode:      deps.EchoCode,
	}
}

// Send issues a fresh 6-digit code, invalidating any prior unconsumed code
// for the user (the table holds one code per user; Put replaces it).
// Delivery is dispatched in the background and never blocks or fails the
// request.
func (s *service) Send(ctx context.Context, userID string) (*Challenge, error) {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", domain.ErrStorage)
	}

	code, err := sixDigitCode()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	record := &domain.MfaCode{
		UserID:    userID,
		CodeHash:  pkgtoken.Hash(code),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.codeTTL).Unix(),
		Consumed:  false,
	}
	if err := s.codeRepo.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("store mfa code: %w", domain.ErrStorage)
	}

	expiresIn := int(s.codeTTL.Seconds())
	s.dispatchCode(u, code, expiresIn)

	ch := &Challenge{ExpiresIn: expiresIn}
	if s.echoCode {
		ch.Code = code
	}
	return ch, nil
}

// Verify checks the submitted code against the outstanding one and consumes
// it. A correct-but-expired code fails with ErrCodeExpired so callers can
// offer a re-send; everything else collapses into ErrInvalidCode.
func (s *service) Verify(ctx context.Context, userID, code string) error {
	record, err := s.codeRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no outstanding code: %w", domain.ErrInvalidCode)
		}
		return fmt.Errorf("lookup mfa code: %w", domain.ErrStorage)
	}
	if record.Consumed {
		return fmt.Errorf("code already consumed: %w", domain.ErrInvalidCode)
	}
	if record.Expired(time.Now()) {
		return fmt.Errorf("code past expiry: %w", domain.ErrCodeExpired)
	}
	if subtle.ConstantTimeCompare([]byte(record.CodeHash), []byte(pkgtoken.Hash(code))) != 1 {
		return fmt.Errorf("code mismatch: %w", domain.ErrInvalidCode)
	}
	// The conditional consume is the authoritative check: if a concurrent
	// verify or a re-send got here first, this write loses and the code does
	// not validate twice.
	if err := s.codeRepo.Consume(ctx, userID, record.CodeHash); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("code consumed concurrently: %w", domain.ErrInvalidCode)
		}
		return fmt.Errorf("consume mfa code: %w", domain.ErrStorage)
	}
	return nil
}

// VerifyRecovery consumes exactly one recovery code. A code validates at
// most once; reuse and unknown codes are indistinguishable.
func (s *service) VerifyRecovery(ctx context.Context, userID, recoveryCode string) error {
	err := s.recoveryRepo.Consume(ctx, userID, pkgtoken.Hash(normalizeRecoveryCode(recoveryCode)))
	if err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("recovery code rejected: %w", domain.ErrInvalidRecoveryCode)
		}
		return fmt.Errorf("consume recovery code: %w", domain.ErrStorage)
	}
	return nil
}

// Enable turns MFA on and issues the recovery-code batch. The plaintext
// codes are returned exactly once; only hashes are retained.
func (s *service) Enable(ctx context.Context, userID string) ([]string, error) {
	codes, err := s.replaceRecoveryCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetMfaEnabled(ctx, userID, true); err != nil {
		return nil, fmt.Errorf("enable mfa: %w", domain.ErrStorage)
	}
	return codes, nil
}

// Disable turns MFA off and invalidates everything that depended on it:
// outstanding code, recovery codes and device-trust tokens.
func (s *service) Disable(ctx context.Context, userID string) error {
	if err := s.userRepo.SetMfaEnabled(ctx, userID, false); err != nil {
		return fmt.Errorf("disable mfa: %w", domain.ErrStorage)
	}
	if err := s.recoveryRepo.DeleteAll(ctx, userID); err != nil {
		return fmt.Errorf("invalidate recovery codes: %w", domain.ErrStorage)
	}
	if err := s.codeRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("invalidate outstanding code: %w", domain.ErrStorage)
	}
	if err := s.trustRevoker.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("revoke device trust: %w", domain.ErrStorage)
	}
	return nil
}

// RegenerateRecoveryCodes invalidates the old batch and issues a new one.
func (s *service) RegenerateRecoveryCodes(ctx context.Context, userID string) ([]string, error) {
	return s.replaceRecoveryCodes(ctx, userID)
}

func (s *service) replaceRecoveryCodes(ctx context.Context, userID string) ([]string, error) {
	if err := s.recoveryRepo.DeleteAll(ctx, userID); err != nil {
		return nil, fmt.Errorf("clear recovery codes: %w", domain.ErrStorage)
	}
	now := time.Now().UTC()
	codes := make([]string, 0, s.recoveryCount)
	for i := 0; i < s.recoveryCount; i++ {
		code, err := recoveryCode()
		if err != nil {
			return nil, err
		}
		record := &domain.RecoveryCode{
			UserID:    userID,
			CodeHash:  pkgtoken.Hash(code),
			Used:      false,
			CreatedAt: now,
		}
		if err := s.recoveryRepo.Put(ctx, record); err != nil {
			return nil, fmt.Errorf("store recovery code: %w", domain.ErrStorage)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *service) dispatchCode(u *domain.User, code string, expiresIn int) {
	email := u.Email
	background.Go("mfa-code-email", func() error {
		body := fmt.Sprintf("Your verification code: %s\nIt expires in %d minutes.", code, expiresIn/60)
		return s.mailer.SendEmail(email, "Your verification code", body)
	})
	if u.Phone != nil && s.smsSender != nil {
		phone := *u.Phone
		background.Go("mfa-code-sms", func() error {
			return s.smsSender.SendSMS(context.Background(), phone, "Your verification code: "+code)
		})
	}
}

func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// recoveryCode returns a code like "K7QW-M3ZP".
func recoveryCode() (string, error) {
	b := make([]byte, 8)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(recoveryAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = recoveryAlphabet[idx.Int64()]
	}
	return string(b[:4]) + "-" + string(b[4:]), nil
}

// normalizeRecoveryCode tolerates users typing the code without the dash or
// in lower case.
func normalizeRecoveryCode(code string) string {
	out := make([]byte, 0, len(code))
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c == '-' || c == ' ' {
			continue
		}
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	if len(out) != 8 {
		return string(out)
	}
	return string(out[:4]) + "-" + string(out[4:])
}
