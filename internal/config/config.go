package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Session tracking configuration
	Tracker TrackerConfig `yaml:"tracker"`

	// Daily report configuration
	Report ReportConfig `yaml:"report"`

	// SMTP configuration for the report dispatcher
	SMTP SMTPConfig `yaml:"smtp"`

	// HTTP server configuration
	Server ServerConfig `yaml:"server"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// DatabaseConfig holds persistence configuration
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	Path   string `yaml:"path"`   // SQLite database file path
	DSN    string `yaml:"dsn"`    // Postgres connection string
}

// TrackerConfig holds session tracking behavior configuration
type TrackerConfig struct {
	TickInterval    time.Duration `yaml:"tick_interval"`     // Minute-tick period while running
	MaxBreakMinutes int           `yaml:"max_break_minutes"` // Upper bound for takeBreak requests
}

// ReportConfig holds daily report generation configuration
type ReportConfig struct {
	Schedule string `yaml:"schedule"` // Cron expression for the daily run
	TimeZone string `yaml:"timezone"`
	TopLimit int    `yaml:"top_limit"` // Entries kept in top-apps/top-websites rankings
}

// SMTPConfig holds mail delivery configuration
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"` // "production" or "development"
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "", // Empty means use default ~/.config/workpulse/workpulse.db
		},
		Tracker: TrackerConfig{
			TickInterval:    time.Minute,
			MaxBreakMinutes: 240,
		},
		Report: ReportConfig{
			Schedule: "0 18 * * *", // 18:00 daily
			TimeZone: "Local",
			TopLimit: 10,
		},
		SMTP: SMTPConfig{
			Host: "localhost",
			Port: 25,
			From: "reports@workpulse.local",
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Log: LogConfig{
			Level: "info",
			Env:   "development",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("postgres driver requires a DSN")
		}
	default:
		return fmt.Errorf("unknown database driver: %s (valid: sqlite, postgres)", c.Database.Driver)
	}

	if c.Tracker.TickInterval < time.Second {
		return fmt.Errorf("tick interval (%v) cannot be less than 1s", c.Tracker.TickInterval)
	}

	if c.Tracker.MaxBreakMinutes < 1 {
		return fmt.Errorf("max break minutes must be positive, got %d", c.Tracker.MaxBreakMinutes)
	}

	if c.Report.TopLimit < 1 {
		return fmt.Errorf("report top limit must be positive, got %d", c.Report.TopLimit)
	}

	if c.Report.Schedule == "" {
		return fmt.Errorf("report schedule cannot be empty")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	return nil
}

// Location resolves the configured report time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Report.TimeZone == "" || c.Report.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Report.TimeZone)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Driver: %s
    Path: %s
  Tracker:
    Tick Interval: %v
    Max Break: %dm
  Report:
    Schedule: %s
    Time Zone: %s
    Top Limit: %d
  Server:
    Host: %s
    Port: %d
  Log:
    Level: %s
    Env: %s`,
		c.Database.Driver,
		c.Database.Path,
		c.Tracker.TickInterval,
		c.Tracker.MaxBreakMinutes,
		c.Report.Schedule,
		c.Report.TimeZone,
		c.Report.TopLimit,
		c.Server.Host,
		c.Server.Port,
		c.Log.Level,
		c.Log.Env,
	)
}
