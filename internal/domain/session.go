package domain

import "time"

// SessionState is the lifecycle state of a session.
// Transitions: pending -> verified -> (revoked | expired).
// revoked and expired are terminal.
type SessionState string

const (
	SessionPending  SessionState = "pending"
	SessionVerified SessionState = "verified"
	SessionRevoked  SessionState = "revoked"
	SessionExpired  SessionState = "expired"
)

// Terminal reports whether the state admits no further transitions.
func (s SessionState) Terminal() bool {
	return s == SessionRevoked || s == SessionExpired
}

// Origin channels a session can be created from.
const (
	SourceWeb    = "web"
	SourceMobile = "mobile"
)

// Keys of the open session payload.
const (
	SessionDataRememberMe = "remember_me" // "1" when the login asked for a long session
	SessionDataPendingMfa = "pending_mfa" // "1" while an MFA challenge is outstanding
)

type Session struct {
	SessionID       string            `json:"id" dynamodbav:"session_id"`
	UserID          string            `json:"user_id" dynamodbav:"user_id"`
	ActiveCompanyID string            `json:"active_company_id,omitempty" dynamodbav:"active_company_id"`
	Source          string            `json:"source" dynamodbav:"source"`
	State           SessionState      `json:"state" dynamodbav:"state"`
	MfaVerified     bool              `json:"mfa_verified" dynamodbav:"mfa_verified"`
	IdleExpiresAt   int64             `json:"idle_expires_at" dynamodbav:"idle_expires_at"` // Unix seconds
	AbsExpiresAt    int64             `json:"abs_expires_at" dynamodbav:"abs_expires_at"`   // Unix seconds; also the DynamoDB TTL attribute
	Data            map[string]string `json:"-" dynamodbav:"data"`
	IP              string            `json:"ip,omitempty" dynamodbav:"ip"`
	UserAgent       string            `json:"user_agent,omitempty" dynamodbav:"user_agent"`
	CreatedAt       time.Time         `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time         `json:"updated" dynamodbav:"updated_at"`
	User            *User             `json:"user,omitempty" dynamodbav:"-"`
}

// Alive reports whether the session is non-terminal and inside both expiry
// windows at now. Validity is always recomputed at time of use.
func (s *Session) Alive(now time.Time) bool {
	if s.State.Terminal() {
		return false
	}
	ts := now.Unix()
	return ts < s.IdleExpiresAt && ts < s.AbsExpiresAt
}

// RememberMe reports the remember-me choice captured at login.
func (s *Session) RememberMe() bool {
	return s.Data[SessionDataRememberMe] == "1"
}
