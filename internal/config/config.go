// Package config provides centralized configuration management for the loader.
// It loads configuration from environment variables with sensible defaults,
// lets command-line flags override them, and validates all settings before
// any file or database work starts.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Upload   UploadConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Host is the database server host (default: localhost)
	Host string `env:"DB_HOST" envAlt:"PGHOST" default:"localhost"`

	// Port is the database server port (default: 5432)
	Port int `env:"DB_PORT" envAlt:"PGPORT" default:"5432"`

	// User is the login role. Required for live and create-table runs.
	User string `env:"DB_USER" envAlt:"PGUSER"`

	// Password may be empty.
	Password string `env:"DB_PASSWORD" envAlt:"PGPASSWORD"`

	// Name is the target database, created on demand (default: users_db)
	Name string `env:"DB_NAME" default:"users_db"`

	// SSLMode is passed through to the connection string (default: prefer)
	SSLMode string `env:"DB_SSLMODE" default:"prefer"`

	// ConnectTimeout bounds connection establishment (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// UploadConfig holds CSV processing settings.
type UploadConfig struct {
	// File is the CSV path. Set from --file; there is no env var.
	File string

	// DryRun validates and reports rows without touching the database.
	DryRun bool

	// CreateTable drops and recreates the users table, then exits.
	CreateTable bool

	// FailedOut is an optional path for a CSV report of skipped rows.
	FailedOut string `env:"UPLOAD_FAILED_OUT"`

	// Encoding of the input file: utf-8, latin1, windows-1252 or windows-1251 (default: utf-8)
	Encoding string `env:"UPLOAD_ENCODING" default:"utf-8"`

	// InsertTimeout bounds a single insert; 0 disables the bound (default: 0s)
	InsertTimeout time.Duration `env:"UPLOAD_INSERT_TIMEOUT" default:"0s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: warn)
	Level string `env:"LOG_LEVEL" default:"warn"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// NeedsDatabase reports whether the run must open a database connection.
// Dry runs never do.
func (c *Config) NeedsDatabase() bool {
	return c.Upload.CreateTable || !c.Upload.DryRun
}

// Addr returns the database address in host:port format.
func (c *DatabaseConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
