package domain

import "time"

// Platform-level roles. Members only see companies they hold grants for;
// platform admins have wildcard tenant access.
const (
	RoleMember        = "member"
	RolePlatformAdmin = "platform_admin"
)

type User struct {
	UserID         string     `json:"id" dynamodbav:"user_id"`
	Email          string     `json:"email" dynamodbav:"email"`
	Phone          *string    `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash   string     `json:"-" dynamodbav:"password_hash"`
	Role           string     `json:"role" dynamodbav:"role"`
	HomeCompanyID  string     `json:"home_company_id" dynamodbav:"home_company_id"`
	MfaEnabled     bool       `json:"mfa_enabled" dynamodbav:"mfa_enabled"`
	FailedAttempts int        `json:"-" dynamodbav:"failed_attempts"`
	FirstFailedAt  int64      `json:"-" dynamodbav:"first_failed_at"` // Unix seconds; start of the rolling failure window
	LockedUntil    int64      `json:"-" dynamodbav:"locked_until"`    // Unix seconds; 0 = not locked
	Enable         bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt      time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Locked reports whether the account is under an active lockout at now.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil > 0 && now.Unix() < u.LockedUntil
}
