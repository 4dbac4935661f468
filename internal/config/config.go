package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Booking funnel business settings
	BusinessTimezone string
	ClosedWeekday    time.Weekday
	OpenHour         int
	LastSlotHour     int
	SlotInterval     time.Duration
	MinLeadTime      time.Duration
	CountryCode      string
	PageVariant      string
	DefaultLanguage  string

	// Lead webhook + confirmation redirect
	LeadWebhookURL     string
	LeadWebhookTimeout time.Duration
	ConfirmationURL    string

	// Session storage
	UseMemorySessions bool
	SessionTTL        time.Duration
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		BusinessTimezone: getEnv("BUSINESS_TIMEZONE", "America/Chicago"),
		ClosedWeekday:    time.Weekday(getEnvAsInt("CLOSED_WEEKDAY", int(time.Sunday))),
		OpenHour:         getEnvAsInt("OPEN_HOUR", 8),
		LastSlotHour:     getEnvAsInt("LAST_SLOT_HOUR", 16),
		SlotInterval:     getEnvAsDuration("SLOT_INTERVAL", 30*time.Minute),
		MinLeadTime:      getEnvAsDuration("MIN_LEAD_TIME", 60*time.Minute),
		CountryCode:      getEnv("COUNTRY_CODE", "1"),
		PageVariant:      getEnv("PAGE_VARIANT", "general_repair_001"),
		DefaultLanguage:  getEnv("DEFAULT_LANGUAGE", "en"),

		LeadWebhookURL:     getEnv("LEAD_WEBHOOK_URL", ""),
		LeadWebhookTimeout: getEnvAsDuration("LEAD_WEBHOOK_TIMEOUT", 10*time.Second),
		ConfirmationURL:    getEnv("CONFIRMATION_URL", "/confirmation"),

		UseMemorySessions: getEnvAsBool("USE_MEMORY_SESSIONS", false),
		SessionTTL:        getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		RedisAddr:         getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisTLS:          getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
