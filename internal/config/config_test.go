package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("expected default rate limit 120, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("expected default session TTL 12h, got %s", cfg.SessionTTL)
	}
	if cfg.InvoiceDueDays != 30 {
		t.Errorf("expected default invoice due days 30, got %d", cfg.InvoiceDueDays)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("CORS_ORIGINS", "https://app.wellcare.example, https://admin.wellcare.example")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.RateLimitPerMinute != 30 {
		t.Errorf("expected rate limit 30, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.RateLimitEnabled {
		t.Error("expected rate limiting disabled")
	}
	if cfg.SessionTTL != 45*time.Minute {
		t.Errorf("expected session TTL 45m, got %s", cfg.SessionTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.wellcare.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
}

func TestInvalidNumericFallsBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "plenty")
	t.Setenv("SESSION_TTL", "soon")

	cfg := Load()

	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("expected fallback rate limit 120, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("expected fallback session TTL, got %s", cfg.SessionTTL)
	}
}
