// Package config provides centralized configuration management for the intake service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
//
// The resulting Config is built once in main and passed down by value or pointer;
// nothing in the request path reads the environment.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Sheets   SheetsConfig
	Database DatabaseConfig
	Intake   IntakeConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 3000)
	Port int `env:"PORT" envAlt:"SERVER_PORT" default:"3000"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxBodyBytes caps the size of a submission body (default: 1MB)
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" default:"1048576"`
}

// StorageConfig holds local durable store settings.
type StorageConfig struct {
	// DataDir is the root directory for submission records (default: data)
	DataDir string `env:"DATA_DIR" default:"data"`

	// StaticDir holds the public form assets served at / (default: public).
	// A missing directory disables static serving.
	StaticDir string `env:"STATIC_DIR" default:"public"`
}

// SheetsConfig holds Google Sheets mirroring settings.
// The sheet sink is enabled only when SpreadsheetID is set and the
// credentials file can be read.
type SheetsConfig struct {
	// CredentialsPath points at a service-account JSON key (default: ./credentials.json)
	CredentialsPath string `env:"GOOGLE_CREDENTIALS_PATH" default:"./credentials.json"`

	// SpreadsheetID is the destination spreadsheet; empty disables the sink
	SpreadsheetID string `env:"SPREADSHEET_ID"`

	// Range is the A1 range rows are appended to (default: Postulaciones!A:AE)
	Range string `env:"SHEETS_RANGE" default:"Postulaciones!A:AE"`

	// Timeout bounds a single append call (default: 10s)
	Timeout time.Duration `env:"SHEETS_TIMEOUT" default:"10s"`
}

// Configured reports whether a destination spreadsheet was named.
func (c SheetsConfig) Configured() bool {
	return c.SpreadsheetID != ""
}

// DatabaseConfig holds the optional PostgreSQL sink settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; empty disables the sink.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" secret:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// Timeout bounds a single insert (default: 5s)
	Timeout time.Duration `env:"DB_TIMEOUT" default:"5s"`
}

// Configured reports whether a database URL was provided.
func (c DatabaseConfig) Configured() bool {
	return c.URL != ""
}

// IntakeConfig holds submission concurrency settings.
type IntakeConfig struct {
	// MaxConcurrent is the maximum number of submissions processed at once (default: 32)
	MaxConcurrent int `env:"INTAKE_MAX_CONCURRENT" default:"32"`

	// MaxWaitTime is how long a submission waits for a slot (default: 5s)
	MaxWaitTime time.Duration `env:"INTAKE_MAX_WAIT_TIME" default:"5s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// SubmitLimit is requests per minute for the submission endpoint (default: 20)
	SubmitLimit int `env:"RATE_LIMIT_SUBMIT" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled exposes /metrics (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
