package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.BackendBaseURL != "" {
		t.Fatalf("BackendBaseURL = %q, want empty default (mock backend)", cfg.BackendBaseURL)
	}
	if cfg.SessionInactivityTimeout != 30*time.Minute {
		t.Fatalf("SessionInactivityTimeout = %v, want 30m", cfg.SessionInactivityTimeout)
	}
	if cfg.MetricsNamespace != "assistant" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "assistant")
	}
	if cfg.PersonalityEnabled {
		t.Fatal("PersonalityEnabled should default to false")
	}
}

func TestLoadExplicitBackend(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("BACKEND_BASE_URL", "http://localhost:7777/api")
	t.Setenv("BACKEND_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BackendBaseURL != "http://localhost:7777/api" {
		t.Fatalf("BackendBaseURL = %q, want explicit value", cfg.BackendBaseURL)
	}
	if cfg.BackendTimeout != 3*time.Second {
		t.Fatalf("BackendTimeout = %v, want 3s", cfg.BackendTimeout)
	}
}

func TestLoadRejectsTinyInactivityTimeout(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "1s")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject sub-5s inactivity timeout")
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject malformed duration")
	}
}

func TestLoadPersonalitySeed(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_PERSONALITY_ENABLED", "true")
	t.Setenv("APP_PERSONALITY_SEED", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.PersonalityEnabled {
		t.Fatal("PersonalityEnabled = false, want true")
	}
	if cfg.PersonalitySeed != 42 {
		t.Fatalf("PersonalitySeed = %d, want 42", cfg.PersonalitySeed)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_JANITOR_INTERVAL",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_PERSONALITY_ENABLED",
		"APP_PERSONALITY_SEED",
		"APP_DEV_LOGGING",
		"BACKEND_BASE_URL",
		"BACKEND_TIMEOUT",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
