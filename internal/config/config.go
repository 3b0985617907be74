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
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Sweep cadences. The engine exposes plain callables; main wires
	// them to tickers with these intervals.
	NoShowSweepInterval        time.Duration
	StageAlertSweepInterval    time.Duration
	DeteriorationSweepInterval time.Duration
	InventorySweepInterval     time.Duration

	// Threshold tuning. Operationally adjustable, so they live here
	// rather than as literals inside the evaluators.
	VitalsBufferMinutes      int
	DoctorBufferMinutes      int
	SlotReleaseBufferMinutes int
	JobTimeout               time.Duration
	UnhealthyAfterFailures   int
	ReorderThreshold         int

	// Alert idempotency guard TTL (redis SetNX key lifetime).
	AlertGuardTTL time.Duration

	// Staff paged on critical deterioration and alert escalations.
	OnCallStaffIDs []string

	// Messaging relay for real SMS/email delivery. Empty URL keeps the
	// stub notifier.
	NotifyGatewayURL   string
	NotifyGatewayToken string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		NoShowSweepInterval:        getEnvAsDuration("NO_SHOW_SWEEP_INTERVAL", 5*time.Minute),
		StageAlertSweepInterval:    getEnvAsDuration("STAGE_ALERT_SWEEP_INTERVAL", 2*time.Minute),
		DeteriorationSweepInterval: getEnvAsDuration("DETERIORATION_SWEEP_INTERVAL", 5*time.Minute),
		InventorySweepInterval:     getEnvAsDuration("INVENTORY_SWEEP_INTERVAL", 24*time.Hour),

		VitalsBufferMinutes:      getEnvAsInt("VITALS_BUFFER_MINUTES", 5),
		DoctorBufferMinutes:      getEnvAsInt("DOCTOR_BUFFER_MINUTES", 10),
		SlotReleaseBufferMinutes: getEnvAsInt("SLOT_RELEASE_BUFFER_MINUTES", 5),
		JobTimeout:               getEnvAsDuration("JOB_TIMEOUT", 10*time.Minute),
		UnhealthyAfterFailures:   getEnvAsInt("UNHEALTHY_AFTER_FAILURES", 3),
		ReorderThreshold:         getEnvAsInt("REORDER_THRESHOLD", 50),

		AlertGuardTTL: getEnvAsDuration("ALERT_GUARD_TTL", 24*time.Hour),

		OnCallStaffIDs: getEnvAsList("ON_CALL_STAFF_IDS"),

		NotifyGatewayURL:   getEnv("NOTIFY_GATEWAY_URL", ""),
		NotifyGatewayToken: getEnv("NOTIFY_GATEWAY_TOKEN", ""),
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

// getEnvAsList splits a comma-separated environment variable, dropping
// empty entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
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
