package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the parking assistant service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	JanitorInterval          time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	// BackendBaseURL points at the reservation backend. Empty means the
	// built-in mock backend, which is the dev default.
	BackendBaseURL string
	BackendTimeout time.Duration

	DatabaseURL string

	PersonalityEnabled bool
	PersonalitySeed    int64

	DevLogging bool
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "assistant"),
		BackendBaseURL:           stringsTrimSpace("BACKEND_BASE_URL"),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		JanitorInterval:          time.Minute,
		BackendTimeout:           10 * time.Second,
		PersonalityEnabled:       false,
		PersonalitySeed:          time.Now().UnixNano(),
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorInterval, err = durationFromEnv("APP_JANITOR_INTERVAL", cfg.JanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.BackendTimeout, err = durationFromEnv("BACKEND_TIMEOUT", cfg.BackendTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.PersonalityEnabled, err = boolFromEnv("APP_PERSONALITY_ENABLED", cfg.PersonalityEnabled)
	if err != nil {
		return Config{}, err
	}
	cfg.DevLogging, err = boolFromEnv("APP_DEV_LOGGING", cfg.DevLogging)
	if err != nil {
		return Config{}, err
	}
	seed, err := intFromEnv("APP_PERSONALITY_SEED", 0)
	if err != nil {
		return Config{}, err
	}
	if seed != 0 {
		cfg.PersonalitySeed = int64(seed)
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.JanitorInterval <= 0 {
		return Config{}, fmt.Errorf("APP_JANITOR_INTERVAL must be positive")
	}
	if cfg.BackendTimeout <= 0 {
		return Config{}, fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
