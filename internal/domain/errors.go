package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without
// leaking infrastructure details. Security-sensitive distinctions (unknown
// user vs. wrong password, unknown vs. expired device-trust token) are
// collapsed into a single sentinel before they cross a component boundary.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountLocked       = errors.New("account locked")
	ErrNoActiveCompanies   = errors.New("no active companies")
	ErrNoPendingMfa        = errors.New("no pending mfa challenge")
	ErrCodeExpired         = errors.New("code expired")
	ErrInvalidCode         = errors.New("invalid code")
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")
	ErrCompanyAccessDenied = errors.New("company access denied")
	ErrSessionNotFound     = errors.New("session not found")
	ErrStorage             = errors.New("storage error")

	// Infrastructure-level sentinels used by the repositories.
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict") // conditional write lost the race
	ErrBadRequest = errors.New("bad request")
)
