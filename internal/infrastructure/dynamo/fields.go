package dynamo

// DynamoDB attribute names used in update and condition expressions across
// all repos. Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldState           = "state"
	fieldMfaVerified     = "mfa_verified"
	fieldIdleExpiresAt   = "idle_expires_at"
	fieldAbsExpiresAt    = "abs_expires_at"
	fieldData            = "data"
	fieldActiveCompanyID = "active_company_id"
	fieldConsumed        = "consumed"
	fieldCodeHash        = "code_hash"
	fieldUsed            = "used"
	fieldUsedAt          = "used_at"
	fieldFailedAttempts  = "failed_attempts"
	fieldFirstFailedAt   = "first_failed_at"
	fieldLockedUntil     = "locked_until"
	fieldMfaEnabled      = "mfa_enabled"
	fieldLastAccessedAt  = "last_accessed_at"
)
