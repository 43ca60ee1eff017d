package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration, loaded from environment
// variables.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Security      SecurityConfig
	Observability ObservabilityConfig
	RateLimit     RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port         string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"yaas"`
	Password        string        `env:"DB_PASSWORD"`
	Database        string        `env:"DB_NAME" envDefault:"yaas"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// SecurityConfig holds the signing secret and password hashing
// parameters. JWTSecret is read once at startup and shared read-only by
// every verification.
type SecurityConfig struct {
	JWTSecret         string        `env:"JWT_SECRET"`
	Argon2Memory      uint32        `env:"ARGON2_MEMORY" envDefault:"65536"`
	Argon2Iterations  uint32        `env:"ARGON2_ITERATIONS" envDefault:"3"`
	Argon2Parallelism uint8         `env:"ARGON2_PARALLELISM" envDefault:"4"`
	Argon2SaltLength  uint32        `env:"ARGON2_SALT_LENGTH" envDefault:"16"`
	Argon2KeyLength   uint32        `env:"ARGON2_KEY_LENGTH" envDefault:"32"`
	CodeLifetime      time.Duration `env:"OAUTH_CODE_LIFETIME" envDefault:"5m"`
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"json"`
	OTELEnabled    bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"yaas"`
	ServiceVersion string `env:"OTEL_SERVICE_VERSION" envDefault:"0.1.0"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"RATELIMIT_RPS" envDefault:"10"`
	Burst             int     `env:"RATELIMIT_BURST" envDefault:"20"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Database.Password == "" {
		return errors.New("DB_PASSWORD is required")
	}
	return nil
}
