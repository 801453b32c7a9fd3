// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// MCP transports served under /mcp.
const (
	TransportStreamableHTTP = "streamable-http"
	TransportSSE            = "sse"
)

// DefaultEnvFile is read when ENV_FILE is unset.
const DefaultEnvFile = ".env"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppName string `env:"APP_NAME" envDefault:"usermcp"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Data source
	CSVFilePath string `env:"CSV_FILE_PATH,required,notEmpty"`
	WatchSource bool   `env:"WATCH_SOURCE" envDefault:"false"`

	// Bearer token expected on every MCP request
	APIToken string `env:"MCP_API_TOKEN,required,notEmpty,unset"`

	// Tool settings
	PageSizeDefault int    `env:"PAGE_SIZE_DEFAULT" envDefault:"10"`
	PageSizeMax     int    `env:"PAGE_SIZE_MAX" envDefault:"100"`
	MCPTransport    string `env:"MCP_TRANSPORT" envDefault:"streamable-http"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Cache (Redis), optional
	RedisURL string `env:"REDIS_URL"`

	// Rate limiting, effective only with REDIS_URL
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPM     int  `env:"RATE_LIMIT_RPM" envDefault:"120"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Publish tool audit events to a Redis stream, effective only with REDIS_URL
	AuditStreamEnabled bool `env:"AUDIT_STREAM_ENABLED" envDefault:"false"`

	// Comma-separated list of allowed origins (e.g., "https://example.com,*.example.org")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// RateLimitActive reports whether requests are rate limited.
func (c *Config) RateLimitActive() bool {
	return c.RedisURL != "" && c.RateLimitEnabled && c.RateLimitRPM > 0
}

// AuditStreamActive reports whether audit events go to the Redis stream.
func (c *Config) AuditStreamActive() bool {
	return c.AuditStreamEnabled && c.RedisURL != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Validate checks value ranges and enumerations that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.AppPort > 0 && c.AppPort <= 65535, "APP_PORT must be between 1 and 65535, got %d", c.AppPort)
	check(c.PageSizeMax >= 1 && c.PageSizeMax <= 100, "PAGE_SIZE_MAX must be between 1 and 100, got %d", c.PageSizeMax)
	check(c.PageSizeDefault >= 1 && c.PageSizeDefault <= c.PageSizeMax,
		"PAGE_SIZE_DEFAULT must be between 1 and PAGE_SIZE_MAX (%d), got %d", c.PageSizeMax, c.PageSizeDefault)
	check(oneOf(c.LogLevel, "debug", "info", "warn", "error"), "LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	check(oneOf(c.LogFormat, "json", "text"), "LOG_FORMAT must be json or text, got %q", c.LogFormat)
	check(oneOf(c.MCPTransport, TransportStreamableHTTP, TransportSSE),
		"MCP_TRANSPORT must be %s or %s, got %q", TransportStreamableHTTP, TransportSSE, c.MCPTransport)
	check(c.RateLimitRPM >= 0, "RATE_LIMIT_RPM must not be negative, got %d", c.RateLimitRPM)
	check(!c.RateLimitActive() || c.RateLimitBurst >= 1, "RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	check(c.MaxRequestBodySize >= 0, "MAX_REQUEST_BODY_SIZE must not be negative, got %d", c.MaxRequestBodySize)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if strings.EqualFold(v, o) {
			return true
		}
	}
	return false
}

// Load reads the env file (ENV_FILE, or .env when present), parses
// environment variables and validates the result. Variables already set
// in the environment take precedence over the file.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.MCPTransport = strings.ToLower(cfg.MCPTransport)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile() error {
	path := os.Getenv("ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
