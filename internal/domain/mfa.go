package domain

import "time"

// MfaCode is the single outstanding one-time code for a user.
// PK: user_id — writing a new code replaces (and thereby invalidates) the
// previous one, so only the most recently issued code can ever verify.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type MfaCode struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	CodeHash  string `json:"-" dynamodbav:"code_hash"` // SHA-256 hex of the 6-digit code
	IssuedAt  int64  `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
	Consumed  bool   `json:"consumed" dynamodbav:"consumed"`
}

// Expired reports whether the code's validity window has passed.
func (c *MfaCode) Expired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}

// RecoveryCode is a single-use backup credential issued in a batch when MFA
// is enabled. PK: user_id, SK: code_hash. Only hashes are ever stored.
type RecoveryCode struct {
	UserID    string     `json:"user_id" dynamodbav:"user_id"`
	CodeHash  string     `json:"-" dynamodbav:"code_hash"`
	Used      bool       `json:"used" dynamodbav:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty" dynamodbav:"used_at"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
}
