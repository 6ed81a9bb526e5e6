package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	// Session lifetimes. Idle expiry is extended on activity but never past
	// the absolute maximum fixed at creation/upgrade.
	SessionIdleDefault    time.Duration
	SessionIdleRememberMe time.Duration
	SessionAbsoluteMax    time.Duration
	SessionPendingTTL     time.Duration

	MfaCodeTTL            time.Duration
	MfaRecoveryCodeCount  int
	MfaEchoCode           bool // test-only: echo the raw code in API output; never inferred from AppEnv
	DeviceTrustTTL        time.Duration
	LockoutThreshold      int
	LockoutWindow         time.Duration
	LockoutDuration       time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Sessions      string
	MfaCodes      string
	RecoveryCodes string
	DeviceTrust   string
	CompanyGrants string
	Companies     string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:      getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			MfaCodes:      getEnv("DYNAMO_TABLE_MFA_CODES", "mfa_codes"),
			RecoveryCodes: getEnv("DYNAMO_TABLE_RECOVERY_CODES", "recovery_codes"),
			DeviceTrust:   getEnv("DYNAMO_TABLE_DEVICE_TRUST", "device_trust"),
			CompanyGrants: getEnv("DYNAMO_TABLE_COMPANY_GRANTS", "company_grants"),
			Companies:     getEnv("DYNAMO_TABLE_COMPANIES", "companies"),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvMinutes("JWT_EXPIRY_MINUTES", 15),

		SessionIdleDefault:    getEnvMinutes("SESSION_IDLE_MINUTES", 120),
		SessionIdleRememberMe: getEnvMinutes("SESSION_IDLE_REMEMBER_ME_MINUTES", 43200), // 30 days
		SessionAbsoluteMax:    getEnvMinutes("SESSION_ABSOLUTE_MAX_MINUTES", 129600),    // 90 days
		SessionPendingTTL:     getEnvMinutes("SESSION_PENDING_TTL_MINUTES", 15),

		MfaCodeTTL:           getEnvMinutes("MFA_CODE_TTL_MINUTES", 10),
		MfaRecoveryCodeCount: getEnvInt("MFA_RECOVERY_CODE_COUNT", 10),
		MfaEchoCode:          getEnvBool("MFA_ECHO_CODE", false),
		DeviceTrustTTL:       getEnvMinutes("DEVICE_TRUST_TTL_MINUTES", 43200), // 30 days
		LockoutThreshold:     getEnvInt("LOCKOUT_THRESHOLD", 5),
		LockoutWindow:        getEnvMinutes("LOCKOUT_WINDOW_MINUTES", 15),
		LockoutDuration:      getEnvMinutes("LOCKOUT_DURATION_MINUTES", 15),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// Production reports whether the app runs with production hardening
// (secure cookies, no relaxed defaults).
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvMinutes(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Minute
}
