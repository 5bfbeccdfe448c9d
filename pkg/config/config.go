package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Data
	DataPath string // CSV feed location; synthetic data is generated when empty/missing

	// Alerting thresholds
	Alerts AlertConfig

	// Email digests and alerts
	SMTP SMTPConfig

	// Narrative commentary service
	Commentary CommentaryConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// AlertConfig holds the alert evaluator thresholds.
// Negative values are a configuration error, never silently clamped.
type AlertConfig struct {
	DropFraction           float64 // pipeline drop trigger, fraction of previous total
	AgingDaysThreshold     int     // stage-0 average age trigger, days
	RepPerformanceFraction float64 // percent-to-plan floor, fraction of target
}

// SMTPConfig holds outbound email configuration.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       []string
	Enabled  bool
}

// CommentaryConfig holds the external text-generation service configuration.
type CommentaryConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	RateLimit float64 // requests per second allowed against the service
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DataPath: getEnv("DATA_PATH", "data/sales_data.csv"),

		Alerts: AlertConfig{
			DropFraction:           getEnvAsFloat("ALERT_DROP_FRACTION", 0.20),
			AgingDaysThreshold:     getEnvAsInt("ALERT_AGING_DAYS", 30),
			RepPerformanceFraction: getEnvAsFloat("ALERT_REP_FRACTION", 0.70),
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			To:       getEnvAsList("SMTP_TO"),
			Enabled:  getEnvAsBool("SMTP_ENABLED", false),
		},

		Commentary: CommentaryConfig{
			APIKey:    getEnv("COMMENTARY_API_KEY", ""),
			BaseURL:   getEnv("COMMENTARY_BASE_URL", "https://api.openai.com/v1"),
			Model:     getEnv("COMMENTARY_MODEL", "gpt-3.5-turbo"),
			Timeout:   getEnvAsDuration("COMMENTARY_TIMEOUT", "20s"),
			RateLimit: getEnvAsFloat("COMMENTARY_RATE_LIMIT", 1.0),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks for fatal misconfiguration at startup.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Alerts.DropFraction < 0 {
		return fmt.Errorf("ALERT_DROP_FRACTION must not be negative, got %v", c.Alerts.DropFraction)
	}
	if c.Alerts.AgingDaysThreshold < 0 {
		return fmt.Errorf("ALERT_AGING_DAYS must not be negative, got %d", c.Alerts.AgingDaysThreshold)
	}
	if c.Alerts.RepPerformanceFraction < 0 {
		return fmt.Errorf("ALERT_REP_FRACTION must not be negative, got %v", c.Alerts.RepPerformanceFraction)
	}

	if c.SMTP.Enabled {
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP_HOST is required when SMTP_ENABLED=true")
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("SMTP_FROM is required when SMTP_ENABLED=true")
		}
		if len(c.SMTP.To) == 0 {
			return fmt.Errorf("SMTP_TO is required when SMTP_ENABLED=true")
		}
	}

	if c.Commentary.RateLimit <= 0 {
		return fmt.Errorf("COMMENTARY_RATE_LIMIT must be positive, got %v", c.Commentary.RateLimit)
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
