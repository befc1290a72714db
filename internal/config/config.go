package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// APIToken is the shared secret callers must present in X-API-Token on
	// every mutating or listing endpoint.
	APIToken string
	// AdminToken gates the fleet-visibility endpoint (GET /schedules).
	AdminToken string
	// AuthAllowAnonymous permits requests without any token. Off by default;
	// turn on only for local debugging.
	AuthAllowAnonymous bool

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// Timezone is the IANA zone schedules are interpreted in.
	Timezone string

	// Workers is the size of the briefing worker pool.
	Workers int

	// ProviderTimeout bounds each outbound search call.
	ProviderTimeout time.Duration
	// NotifyTimeout bounds each notification send.
	NotifyTimeout time.Duration

	// ReportFormat is "csv" (default) or "xlsx".
	ReportFormat string

	// SMTP settings for the email notifier.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string

	// Env is "dev" (default) or "prod". When "prod", API_TOKEN must be set and not the default.
	Env string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is a list of origins allowed for CORS.
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string
}

func Load() Config {
	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8080"),

		APIToken:           getEnv("API_TOKEN", "dev-token"),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),
		AuthAllowAnonymous: getEnvBool("AUTH_ALLOW_ANONYMOUS", false),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "briefingdb"),
		DBUser: getEnv("DB_USER", "briefing"),
		DBPass: getEnv("DB_PASS", "briefing"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		Timezone: getEnv("BRIEFING_TZ", "Asia/Seoul"),
		Workers:  getEnvInt("BRIEFING_WORKERS", 4),

		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),
		NotifyTimeout:   getEnvDuration("NOTIFY_TIMEOUT", 15*time.Second),

		ReportFormat: getEnv("REPORT_FORMAT", "csv"),

		SMTPHost: getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort: getEnvInt("SMTP_PORT", 465),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),

		Env: getEnv("ENV", "dev"),

		// Optional TLS configuration for HTTPS.
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
