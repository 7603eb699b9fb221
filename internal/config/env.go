package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables.
// Environment variables override file and default values.
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if driver := os.Getenv("WORKPULSE_DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dbPath := os.Getenv("WORKPULSE_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if dsn := os.Getenv("WORKPULSE_DB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	// Tracker configuration
	if tick := os.Getenv("WORKPULSE_TICK_INTERVAL"); tick != "" {
		if seconds, err := strconv.Atoi(tick); err == nil && seconds > 0 {
			cfg.Tracker.TickInterval = time.Duration(seconds) * time.Second
		}
	}
	if maxBreak := os.Getenv("WORKPULSE_MAX_BREAK_MINUTES"); maxBreak != "" {
		if minutes, err := strconv.Atoi(maxBreak); err == nil && minutes > 0 {
			cfg.Tracker.MaxBreakMinutes = minutes
		}
	}

	// Report configuration
	if schedule := os.Getenv("WORKPULSE_REPORT_SCHEDULE"); schedule != "" {
		cfg.Report.Schedule = schedule
	}
	if timeZone := os.Getenv("WORKPULSE_TIMEZONE"); timeZone != "" {
		cfg.Report.TimeZone = timeZone
	}

	// SMTP configuration
	if host := os.Getenv("WORKPULSE_SMTP_HOST"); host != "" {
		cfg.SMTP.Host = host
	}
	if port := os.Getenv("WORKPULSE_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 && p <= 65535 {
			cfg.SMTP.Port = p
		}
	}
	if user := os.Getenv("WORKPULSE_SMTP_USER"); user != "" {
		cfg.SMTP.User = user
	}
	if pass := os.Getenv("WORKPULSE_SMTP_PASS"); pass != "" {
		cfg.SMTP.Pass = pass
	}
	if from := os.Getenv("WORKPULSE_SMTP_FROM"); from != "" {
		cfg.SMTP.From = from
	}

	// Server configuration
	if host := os.Getenv("WORKPULSE_HTTP_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("WORKPULSE_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 && p <= 65535 {
			cfg.Server.Port = p
		}
	}

	// Logging configuration
	if level := os.Getenv("WORKPULSE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if env := os.Getenv("WORKPULSE_ENV"); env != "" {
		cfg.Log.Env = env
	}
}

// New creates a Config from defaults, an optional YAML file named by
// WORKPULSE_CONFIG, and finally environment overrides.
func New() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("WORKPULSE_CONFIG"); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	LoadFromEnv(cfg)
	return cfg, nil
}
