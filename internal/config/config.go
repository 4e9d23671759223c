package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Follow-up dispatch sweep
	SweepSchedule     string
	SweepBatchSize    int
	DispatchRetries   int
	RunSweepInProcess bool

	// Slot recommendation defaults
	SlotStartHour   int
	SlotEndHour     int
	SlotMinutes     int
	SkipLockTimeout time.Duration

	// Outbound notifications
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string
	AWSRegion         string
	SMSFromNumber     string

	// Payment links
	PaymentsBaseURL    string
	PaymentsAPIKey     string
	ConsultFeeCents    int
	AllowLocalPayLinks bool

	// PII redaction service
	RedactorURL    string
	RedactorAPIKey string

	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables. A .env file is
// honored when present so local runs do not need exported variables.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SweepSchedule:     getEnv("FOLLOWUP_SWEEP_SCHEDULE", "@every 5s"),
		SweepBatchSize:    getEnvAsInt("FOLLOWUP_SWEEP_BATCH_SIZE", 50),
		DispatchRetries:   getEnvAsInt("FOLLOWUP_DISPATCH_RETRIES", 3),
		RunSweepInProcess: getEnvAsBool("FOLLOWUP_SWEEP_IN_PROCESS", false),

		SlotStartHour:   getEnvAsInt("SLOT_START_HOUR", 9),
		SlotEndHour:     getEnvAsInt("SLOT_END_HOUR", 13),
		SlotMinutes:     getEnvAsInt("SLOT_MINUTES", 20),
		SkipLockTimeout: getEnvAsDuration("SKIP_LOCK_TIMEOUT", 5*time.Second),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Harbor Health"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Harbor Health"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		SMSFromNumber:     getEnv("SMS_FROM_NUMBER", ""),

		PaymentsBaseURL:    getEnv("PAYMENTS_BASE_URL", ""),
		PaymentsAPIKey:     getEnv("PAYMENTS_API_KEY", ""),
		ConsultFeeCents:    getEnvAsInt("CONSULT_FEE_CENTS", 5000),
		AllowLocalPayLinks: getEnvAsBool("ALLOW_LOCAL_PAY_LINKS", true),

		RedactorURL:    getEnv("REDACTOR_URL", ""),
		RedactorAPIKey: getEnv("REDACTOR_API_KEY", ""),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
