package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/authcore-api/internal/domain"
)

// GrantStore is the slice of the grant repository the resolver needs.
type GrantStore interface {
	Get(ctx context.Context, userID, companyID string) (*domain.CompanyAccessGrant, error)
	ListActiveByUser(ctx context.Context, userID string) ([]domain.CompanyAccessGrant, error)
	TouchLastAccessed(ctx context.Context, userID, companyID string) error
}

// CompanyStore is the slice of the company repository the resolver needs.
type CompanyStore interface {
	Get(ctx context.Context, companyID string) (*domain.Company, error)
	CountEnabled(ctx context.Context) (int, error)
	FirstEnabled(ctx context.Context) (*domain.Company, error)
}

// SessionStore is the piece of the session repository company switching
// writes through.
type SessionStore interface {
	SetActiveCompany(ctx context.Context, sessionID, companyID string) error
}

// Grant is a company the caller may operate in, shaped for API responses.
type Grant struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Pinned    bool   `json:"pinned"`
	Current   bool   `json:"current"`
}

// Service resolves which company a session operates in and mediates
// switching. Platform admins hold a wildcard: any enabled company is
// switchable without a per-company grant row.
type Service interface {
	// ResolveActive returns the company the session should operate in: the
	// session's active company if set, otherwise the user's home company.
	// A member with no active grants fails with ErrNoActiveCompanies.
	ResolveActive(ctx context.Context, sess *domain.Session, u *domain.User) (string, error)
	// CanSwitch reports whether the switcher UI applies to this user at all.
	CanSwitch(ctx context.Context, u *domain.User) bool
	// Switch moves the session into targetCompanyID. Denied switches leave
	// the active company untouched and fail with ErrCompanyAccessDenied.
	Switch(ctx context.Context, sess *domain.Session, u *domain.User, targetCompanyID string) error
	// ListAccessible returns the companies the user may switch into.
	ListAccessible(ctx context.Context, sess *domain.Session, u *domain.User) ([]Grant, error)
}

type ServiceDeps struct {
	GrantRepo   GrantStore
	CompanyRepo CompanyStore
	SessionRepo SessionStore
}

type service struct {
	grantRepo   GrantStore
	companyRepo CompanyStore
	sessionRepo SessionStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		grantRepo:   deps.GrantRepo,
		companyRepo: deps.CompanyRepo,
		sessionRepo: deps.SessionRepo,
	}
}

func (s *service) ResolveActive(ctx context.Context, sess *domain.Session, u *domain.User) (string, error) {
	if sess.ActiveCompanyID != "" {
		return sess.ActiveCompanyID, nil
	}
	if u.HomeCompanyID != "" {
		return u.HomeCompanyID, nil
	}
	if u.Role == domain.RolePlatformAdmin {
		// Admins without a home company land in any enabled tenant, no
		// grant row required.
		c, err := s.companyRepo.FirstEnabled(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", fmt.Errorf("no enabled companies: %w", domain.ErrNoActiveCompanies)
			}
			return "", fmt.Errorf("pick company: %w", domain.ErrStorage)
		}
		return c.CompanyID, nil
	}
	grants, err := s.grantRepo.ListActiveByUser(ctx, u.UserID)
	if err != nil {
		return "", fmt.Errorf("list grants: %w", domain.ErrStorage)
	}
	if len(grants) == 0 {
		return "", fmt.Errorf("user %s has no company: %w", u.UserID, domain.ErrNoActiveCompanies)
	}
	return grants[0].CompanyID, nil
}

func (s *service) CanSwitch(ctx context.Context, u *domain.User) bool {
	if u.Role == domain.RolePlatformAdmin {
		n, err := s.companyRepo.CountEnabled(ctx)
		if err != nil {
			slog.Warn("count enabled companies failed", "err", err)
			return false
		}
		return n > 1
	}
	grants, err := s.grantRepo.ListActiveByUser(ctx, u.UserID)
	if err != nil {
		slog.Warn("list grants failed", "user_id", u.UserID, "err", err)
		return false
	}
	return len(grants) > 1
}

func (s *service) Switch(ctx context.Context, sess *domain.Session, u *domain.User, targetCompanyID string) error {
	if err := s.authorize(ctx, u, targetCompanyID); err != nil {
		return err
	}
	if err := s.sessionRepo.SetActiveCompany(ctx, sess.SessionID, targetCompanyID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("session no longer verified: %w", domain.ErrSessionNotFound)
		}
		return fmt.Errorf("switch company: %w", domain.ErrStorage)
	}
	sess.ActiveCompanyID = targetCompanyID
	if u.Role != domain.RolePlatformAdmin {
		if err := s.grantRepo.TouchLastAccessed(ctx, u.UserID, targetCompanyID); err != nil {
			slog.Warn("failed to touch grant", "user_id", u.UserID, "company_id", targetCompanyID, "err", err)
		}
	}
	return nil
}

// authorize checks the user may enter the target company. Members need an
// active grant; platform admins need only that the company exists and is
// enabled.
func (s *service) authorize(ctx context.Context, u *domain.User, companyID string) error {
	c, err := s.companyRepo.Get(ctx, companyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("unknown company %s: %w", companyID, domain.ErrCompanyAccessDenied)
		}
		return fmt.Errorf("lookup company: %w", domain.ErrStorage)
	}
	if !c.Enable {
		return fmt.Errorf("company %s disabled: %w", companyID, domain.ErrCompanyAccessDenied)
	}
	if u.Role == domain.RolePlatformAdmin {
		return nil
	}
	g, err := s.grantRepo.Get(ctx, u.UserID, companyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no grant for company %s: %w", companyID, domain.ErrCompanyAccessDenied)
		}
		return fmt.Errorf("lookup grant: %w", domain.ErrStorage)
	}
	if !g.Active {
		return fmt.Errorf("grant for company %s inactive: %w", companyID, domain.ErrCompanyAccessDenied)
	}
	return nil
}

func (s *service) ListAccessible(ctx context.Context, sess *domain.Session, u *domain.User) ([]Grant, error) {
	grants, err := s.grantRepo.ListActiveByUser(ctx, u.UserID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", domain.ErrStorage)
	}
	out := make([]Grant, 0, len(grants))
	for _, g := range grants {
		c, err := s.companyRepo.Get(ctx, g.CompanyID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("lookup company: %w", domain.ErrStorage)
		}
		if !c.Enable {
			continue
		}
		out = append(out, Grant{
			CompanyID: c.CompanyID,
			Name:      c.Name,
			Pinned:    g.Pinned,
			Current:   sess.ActiveCompanyID == c.CompanyID,
		})
	}
	return out, nil
}
