// Package config handles application configuration via environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the gateway.
type Config struct {
	// Server settings
	Host string `env:"GW_HOST" env-default:"0.0.0.0"`
	Port int    `env:"GW_PORT" env-default:"8080"`

	// Issuer URL, used as the iss claim and in the manifest document
	IssuerURL string `env:"GW_ISSUER_URL" env-default:"http://localhost:8080"`

	// Storage settings
	DataDir string `env:"GW_DATA_DIR" env-default:"./data"`

	// Token settings
	AccessTokenTTL  time.Duration `env:"GW_ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTokenTTL time.Duration `env:"GW_REFRESH_TOKEN_TTL" env-default:"168h"` // 7 days
	AuthCodeTTL     time.Duration `env:"GW_AUTH_CODE_TTL" env-default:"10m"`

	// Rate limiting (per identifier)
	RequestsPerMinute int `env:"GW_REQUESTS_PER_MINUTE" env-default:"50"`
	RequestsPerHour   int `env:"GW_REQUESTS_PER_HOUR" env-default:"1000"`

	// Brute-force protection on credential endpoints
	LoginRateLimit       int           `env:"GW_LOGIN_RATE_LIMIT" env-default:"10"` // attempts per minute per IP
	LoginLockoutAttempts int           `env:"GW_LOGIN_LOCKOUT_ATTEMPTS" env-default:"5"`
	LoginLockoutDuration time.Duration `env:"GW_LOGIN_LOCKOUT_DURATION" env-default:"15m"`

	// Optional Redis fast store for rate counters. Empty address disables
	// the probe and the limiter runs on the durable fallback only.
	RedisAddr     string `env:"GW_REDIS_ADDR" env-default:""`
	RedisPassword string `env:"GW_REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"GW_REDIS_DB" env-default:"0"`

	// Session settings for the authorize flow's login page
	SessionDuration time.Duration `env:"GW_SESSION_DURATION" env-default:"24h"`
	CookieSecure    bool          `env:"GW_COOKIE_SECURE" env-default:"false"`
	CookieDomain    string        `env:"GW_COOKIE_DOMAIN" env-default:""`

	// CSRF signing secret for the login form. Empty means a random secret is
	// generated at startup, which invalidates in-flight forms on restart.
	CSRFSecret string `env:"GW_CSRF_SECRET" env-default:""`

	// Observability
	SentryDSN string `env:"GW_SENTRY_DSN" env-default:""`
	LogLevel  string `env:"GW_LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"GW_LOG_FORMAT" env-default:"json"` // json or text

	// Environment name reported to Sentry
	Environment string `env:"GW_ENVIRONMENT" env-default:"development"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Addr returns the server address in host:port format.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
