package domain

import "time"

// DeviceTrustToken lets a recognized device skip the MFA challenge until it
// expires. PK: user_id, SK: token_hash. The raw token lives only in the
// client's device-trust cookie; tokens are reusable until expiry and are
// revoked wholesale when the user disables MFA.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type DeviceTrustToken struct {
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	TokenHash   string    `json:"-" dynamodbav:"token_hash"` // SHA-256 hex of the raw token
	Fingerprint string    `json:"fingerprint" dynamodbav:"fingerprint"`
	ExpiresAt   int64     `json:"expires_at" dynamodbav:"expires_at"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether the trust window has passed.
func (t *DeviceTrustToken) Expired(now time.Time) bool {
	return now.Unix() >= t.ExpiresAt
}
