// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/walletshop/walletshop/internal/auth"
)

// Config holds all application configuration.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Storage
	DatabaseURL    string `env:"DATABASE_URL,required"`
	RedisURL       string `env:"REDIS_URL,required"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Per-IP rate limiting on the send endpoints
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Comma-separated list of allowed origins
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Push provider
	OneSignalAppID    string  `env:"ONESIGNAL_APP_ID"`
	OneSignalAPIKey   string  `env:"ONESIGNAL_API_KEY"`
	OneSignalAPIURL   string  `env:"ONESIGNAL_API_URL" envDefault:"https://onesignal.com/api/v1"`
	PushRatePerSecond float64 `env:"PUSH_RATE_PER_SECOND" envDefault:"10"`

	// Mail transport
	SMTPHost          string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort          int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPTimeout       time.Duration `env:"SMTP_TIMEOUT" envDefault:"15s"`
	EmailSanitizeHTML bool          `env:"EMAIL_SANITIZE_HTML" envDefault:"false"`

	// Publish dispatch outcomes to the Redis audit stream
	NotifyAuditEnabled bool `env:"NOTIFY_AUDIT_ENABLED" envDefault:"false"`

	// Argon2id PHC hash of the admin key. Empty disables admin routes.
	AdminKeyHash string `env:"ADMIN_KEY_HASH"`

	// Upper bound for cached discount sets
	DiscountCacheTTL time.Duration `env:"DISCOUNT_CACHE_TTL" envDefault:"10m"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// PushConfigured reports whether push credentials are present.
func (c *Config) PushConfigured() bool {
	return c.OneSignalAppID != "" && c.OneSignalAPIKey != ""
}

// AllowedOrigins returns the trimmed, non-empty CORS origins.
func (c *Config) AllowedOrigins() []string {
	result := make([]string, 0, len(c.CORSAllowedOrigins))
	for _, origin := range c.CORSAllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be between 1 and 65535, got %d", c.AppPort))
	}
	if c.MaxRequestBodySize <= 0 {
		errs = append(errs, errors.New("MAX_REQUEST_BODY_SIZE must be positive"))
	}
	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled"))
	}
	if c.DiscountCacheTTL <= 0 {
		errs = append(errs, errors.New("DISCOUNT_CACHE_TTL must be positive"))
	}
	if c.AdminKeyHash != "" {
		if err := auth.ValidateHash(c.AdminKeyHash); err != nil {
			errs = append(errs, fmt.Errorf("ADMIN_KEY_HASH: %w", err))
		}
	}
	return errors.Join(errs...)
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding the process environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given environment instead of the process one.
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
