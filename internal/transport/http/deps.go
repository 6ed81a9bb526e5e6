package http

import (
	"github.com/authcore-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/authcore-api/internal/infrastructure/jwt"
	"github.com/authcore-api/internal/infrastructure/smtp"
	"github.com/authcore-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	MfaCodeRepo      *dynamo.MfaCodeRepo
	RecoveryCodeRepo *dynamo.RecoveryCodeRepo
	DeviceTrustRepo  *dynamo.DeviceTrustRepo
	GrantRepo        *dynamo.GrantRepo
	CompanyRepo      *dynamo.CompanyRepo
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider // nil disables the mobile bearer channel
}
