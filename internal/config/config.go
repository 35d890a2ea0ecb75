// Package config provides centralized configuration for the gridroute
// service and CLI. Values come from environment variables (optionally
// seeded from a .env file by the caller) with defaults, and are validated
// on startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendXLSX     = "xlsx"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Dispatch DispatchConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds a single dispatch, including grid I/O (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxBodyBytes caps POST bodies (default: 1MB)
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" default:"1048576"`
}

// StoreConfig selects and configures the grid backend.
type StoreConfig struct {
	// Backend is one of memory, xlsx, sqlite, postgres (default: memory)
	Backend string `env:"STORE_BACKEND" default:"memory"`

	// XLSXPath is the workbook file for the xlsx backend
	XLSXPath string `env:"STORE_XLSX_PATH" default:"gridroute.xlsx"`

	// SQLitePath is the database file for the sqlite backend
	SQLitePath string `env:"STORE_SQLITE_PATH" default:"gridroute.db"`

	// DatabaseURL is the PostgreSQL connection string for the postgres backend.
	// DB_URL is accepted for compatibility.
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// DispatchConfig controls routing and grid access.
type DispatchConfig struct {
	// MaxConcurrent is the number of requests dispatched at once (default: 1)
	MaxConcurrent int `env:"DISPATCH_MAX_CONCURRENT" default:"1"`

	// MaxWait is how long a request waits for a dispatch slot (default: 30s)
	MaxWait time.Duration `env:"DISPATCH_MAX_WAIT" default:"30s"`

	// StrictGrids rejects ragged rows and unknown columns (default: false)
	StrictGrids bool `env:"GRID_STRICT" default:"false"`

	// RoutesFile is an optional YAML manifest of extra read routes
	RoutesFile string `env:"ROUTES_FILE"`

	// MenuName is the title of the registered menu (default: Start App)
	MenuName string `env:"MENU_NAME" default:"Start App"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects /exec and /api requests without a valid X-API-Key
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" default:"true"`
	Path    string `env:"METRICS_PATH" default:"/metrics"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	// Enabled installs a tracer provider exporting dispatch spans (default: false)
	Enabled bool `env:"TRACING_ENABLED" default:"false"`

	// ServiceName is the service.name resource attribute (default: gridroute)
	ServiceName string `env:"TRACING_SERVICE_NAME" default:"gridroute"`

	// SampleRatio is the fraction of root spans sampled, 0 to 1 (default: 1)
	SampleRatio float64 `env:"TRACING_SAMPLE_RATIO" default:"1"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
