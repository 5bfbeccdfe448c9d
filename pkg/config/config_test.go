package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected Port to be 8080, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Alerts.DropFraction != 0.20 {
		t.Errorf("Expected DropFraction to be 0.20, got %v", cfg.Alerts.DropFraction)
	}

	if cfg.Alerts.AgingDaysThreshold != 30 {
		t.Errorf("Expected AgingDaysThreshold to be 30, got %d", cfg.Alerts.AgingDaysThreshold)
	}

	if cfg.Alerts.RepPerformanceFraction != 0.70 {
		t.Errorf("Expected RepPerformanceFraction to be 0.70, got %v", cfg.Alerts.RepPerformanceFraction)
	}

	if cfg.Commentary.Timeout != 20*time.Second {
		t.Errorf("Expected commentary timeout 20s, got %v", cfg.Commentary.Timeout)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("ALERT_DROP_FRACTION", "0.35")
	os.Setenv("ALERT_AGING_DAYS", "45")
	os.Setenv("LOG_LEVEL", "warn")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("ALERT_DROP_FRACTION")
		os.Unsetenv("ALERT_AGING_DAYS")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Alerts.DropFraction != 0.35 {
		t.Errorf("Expected DropFraction to be 0.35, got %v", cfg.Alerts.DropFraction)
	}

	if cfg.Alerts.AgingDaysThreshold != 45 {
		t.Errorf("Expected AgingDaysThreshold to be 45, got %d", cfg.Alerts.AgingDaysThreshold)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("Expected LogLevel to be warn, got %s", cfg.LogLevel)
	}
}

func TestValidateNegativeThreshold(t *testing.T) {
	os.Setenv("ALERT_DROP_FRACTION", "-0.1")
	defer os.Unsetenv("ALERT_DROP_FRACTION")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for negative ALERT_DROP_FRACTION, got nil")
	}
}

func TestValidateNegativeAgingDays(t *testing.T) {
	os.Setenv("ALERT_AGING_DAYS", "-5")
	defer os.Unsetenv("ALERT_AGING_DAYS")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for negative ALERT_AGING_DAYS, got nil")
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "invalid")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateSMTPEnabledRequiresHost(t *testing.T) {
	os.Setenv("SMTP_ENABLED", "true")
	os.Setenv("SMTP_FROM", "digest@example.com")
	os.Setenv("SMTP_TO", "vp-sales@example.com")
	defer func() {
		os.Unsetenv("SMTP_ENABLED")
		os.Unsetenv("SMTP_FROM")
		os.Unsetenv("SMTP_TO")
	}()

	_, err := Load()
	if err == nil {
		t.Error("Expected error when SMTP is enabled without a host, got nil")
	}
}

func TestGetEnvAsList(t *testing.T) {
	os.Setenv("TEST_LIST", "a@example.com, b@example.com ,,c@example.com")
	defer os.Unsetenv("TEST_LIST")

	values := getEnvAsList("TEST_LIST")
	if len(values) != 3 {
		t.Fatalf("Expected 3 values, got %d: %v", len(values), values)
	}

	if values[1] != "b@example.com" {
		t.Errorf("Expected trimmed value, got %q", values[1])
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2h")
	defer os.Unsetenv("TEST_DURATION")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	if duration != 2*time.Hour {
		t.Errorf("Expected 2h, got %v", duration)
	}

	fallback := getEnvAsDuration("TEST_DURATION_MISSING", "45m")
	if fallback != 45*time.Minute {
		t.Errorf("Expected fallback 45m, got %v", fallback)
	}
}
