package devicetrust

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/authcore-api/internal/domain"
	pkgtoken "github.com/authcore-api/internal/pkg/token"
)

// TrustStore is the slice of the device-trust repository the manager needs.
type TrustStore interface {
	Put(ctx context.Context, t *domain.DeviceTrustToken) error
	Get(ctx context.Context, userID, tokenHash string) (*domain.DeviceTrustToken, error)
	DeleteAll(ctx context.Context, userID string) error
}

// Service issues and validates opaque device-trust tokens. A valid token lets
// a recognized device skip the MFA challenge until the trust window closes.
type Service interface {
	// Issue mints a fresh trust token for the device and returns the raw
	// value to place in the client cookie plus its expiry. Only the hash is
	// stored.
	Issue(ctx context.Context, userID, fingerprint string) (string, time.Time, error)
	// Validate reports whether the raw token is a live trust grant for the
	// user. It never returns an error to the caller: any failure, including
	// a storage one, reads as "not trusted" so a probe learns nothing and
	// login degrades to the MFA challenge.
	Validate(ctx context.Context, userID, rawToken string) bool
	// RevokeAll drops every trust token the user has, across devices.
	RevokeAll(ctx context.Context, userID string) error
}

type ServiceDeps struct {
	TrustRepo TrustStore
	TTL       time.Duration
}

type service struct {
	trustRepo TrustStore
	ttl       time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{trustRepo: deps.TrustRepo, ttl: deps.TTL}
}

func (s *service) Issue(ctx context.Context, userID, fingerprint string) (string, time.Time, error) {
	raw, err := pkgtoken.New()
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)
	t := &domain.DeviceTrustToken{
		UserID:      userID,
		TokenHash:   pkgtoken.Hash(raw),
		Fingerprint: fingerprint,
		ExpiresAt:   expiresAt.Unix(),
		CreatedAt:   now,
	}
	if err := s.trustRepo.Put(ctx, t); err != nil {
		return "", time.Time{}, fmt.Errorf("store device trust token: %w", domain.ErrStorage)
	}
	return raw, expiresAt, nil
}

func (s *service) Validate(ctx context.Context, userID, rawToken string) bool {
	if rawToken == "" {
		return false
	}
	t, err := s.trustRepo.Get(ctx, userID, pkgtoken.Hash(rawToken))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("device trust lookup failed", "user_id", userID, "err", err)
		}
		return false
	}
	// Tokens stay reusable until expiry; the TTL purge is out of band, so an
	// expired row may still be readable here.
	return !t.Expired(time.Now())
}

func (s *service) RevokeAll(ctx context.Context, userID string) error {
	if err := s.trustRepo.DeleteAll(ctx, userID); err != nil {
		return fmt.Errorf("revoke device trust tokens: %w", domain.ErrStorage)
	}
	return nil
}
