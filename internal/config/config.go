package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Chat pipeline
	GeminiAPIKey  string
	GeminiModelID string

	// Per-client config file
	ClientsPath      string
	ClientsReloadTTL time.Duration

	// Site summary cache
	SummaryTTL         time.Duration
	SummaryCacheDriver string // "memory" or "redis"
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool

	// Event sink
	DatabaseURL string

	// Debug-client env fallbacks for CTA resolution
	DebugClientID      string
	DebugBookingURL    string
	DebugContactURL    string
	DebugEscalateURL   string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		ClientsPath:      getEnv("CLIENTS_PATH", "clients.json"),
		ClientsReloadTTL: getEnvAsDuration("CLIENTS_RELOAD_TTL", 10*time.Second),

		SummaryTTL:         getEnvAsDuration("SITE_SUMMARY_TTL", 6*time.Hour),
		SummaryCacheDriver: strings.ToLower(strings.TrimSpace(getEnv("SUMMARY_CACHE_DRIVER", "memory"))),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		DebugClientID:      getEnv("DEBUG_CLIENT_ID", ""),
		DebugBookingURL:    getEnv("DEBUG_BOOKING_URL", ""),
		DebugContactURL:    getEnv("DEBUG_CONTACT_URL", ""),
		DebugEscalateURL:   getEnv("DEBUG_ESCALATE_URL", ""),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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
