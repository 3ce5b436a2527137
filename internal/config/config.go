package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Import    ImportConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
	// Migrate applies embedded schema migrations on startup.
	Migrate bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// RedisConfig holds the session store connection.
type RedisConfig struct {
	URL string
}

// AuthConfig holds admin session and password hashing settings.
type AuthConfig struct {
	SessionCookie string
	SessionTTL    time.Duration
	BcryptCost    int
	SecureCookie  bool
}

// ImportConfig holds spreadsheet import settings.
type ImportConfig struct {
	// NOPPrefix is the 13-digit regional prefix used to expand short NOPs.
	NOPPrefix string
	// NOPSuffix is the single check digit appended to expanded NOPs.
	NOPSuffix string
	MaxBytes  int64
	Workers   int
}

// RateLimitConfig holds per-client limits for the public endpoints.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "pbb")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("SESSION_COOKIE", "admin_session")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("NOP_PREFIX", "3205130005000")
	v.SetDefault("NOP_SUFFIX", "7")
	v.SetDefault("IMPORT_MAX_BYTES", 10<<20)
	v.SetDefault("IMPORT_WORKERS", 1)
	v.SetDefault("PUBLIC_RATE_PER_SEC", 5)
	v.SetDefault("PUBLIC_RATE_BURST", 10)

	// Bind environment variables
	v.AutomaticEnv()

	env := v.GetString("ENV")

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  env,
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		Auth: AuthConfig{
			SessionCookie: v.GetString("SESSION_COOKIE"),
			SessionTTL:    v.GetDuration("SESSION_TTL"),
			BcryptCost:    v.GetInt("BCRYPT_COST"),
			SecureCookie:  env == "production",
		},
		Import: ImportConfig{
			NOPPrefix: v.GetString("NOP_PREFIX"),
			NOPSuffix: v.GetString("NOP_SUFFIX"),
			MaxBytes:  v.GetInt64("IMPORT_MAX_BYTES"),
			Workers:   v.GetInt("IMPORT_WORKERS"),
		},
		RateLimit: RateLimitConfig{
			PerSecond: v.GetFloat64("PUBLIC_RATE_PER_SEC"),
			Burst:     v.GetInt("PUBLIC_RATE_BURST"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	// Validate auth config
	if c.Auth.SessionCookie == "" {
		return fmt.Errorf("SESSION_COOKIE is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	// Validate import config
	if len(c.Import.NOPPrefix) != 13 || !isDigits(c.Import.NOPPrefix) {
		return fmt.Errorf("NOP_PREFIX must be 13 digits")
	}
	if len(c.Import.NOPSuffix) != 1 || !isDigits(c.Import.NOPSuffix) {
		return fmt.Errorf("NOP_SUFFIX must be a single digit")
	}
	if c.Import.MaxBytes < 1 {
		return fmt.Errorf("IMPORT_MAX_BYTES must be positive")
	}
	if c.Import.Workers < 1 {
		return fmt.Errorf("IMPORT_WORKERS must be at least 1")
	}

	if c.RateLimit.PerSecond <= 0 {
		return fmt.Errorf("PUBLIC_RATE_PER_SEC must be positive")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("PUBLIC_RATE_BURST must be at least 1")
	}

	return nil
}

// DSN returns the postgres:// connection URL for the database.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
	)
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
