package domain

import "time"

type Company struct {
	CompanyID string    `json:"id" dynamodbav:"company_id"`
	Name      string    `json:"name" dynamodbav:"name"`
	Enable    bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// CompanyAccessGrant governs which companies a multi-tenant user may switch
// into. PK: user_id, SK: company_id.
type CompanyAccessGrant struct {
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	CompanyID      string    `json:"company_id" dynamodbav:"company_id"`
	Pinned         bool      `json:"pinned" dynamodbav:"pinned"`
	Active         bool      `json:"active" dynamodbav:"active"`
	LastAccessedAt int64     `json:"last_accessed_at" dynamodbav:"last_accessed_at"` // Unix seconds
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}
