package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only acceptable outside production
const DefaultJWTSecret = "change-me"

// Config holds application configuration
type Config struct {
	ServerPort        string
	DatabaseType      string
	DatabasePath      string
	DatabaseURL       string
	JWTSecret         string
	JWTTTL            time.Duration
	FrontendOrigins   []string
	LogMode           string
	CatalogPath       string
	AttemptRateLimit  int
	AttemptRateWindow time.Duration
}

// Load reads configuration from a .env file, if present, and environment
// variables with sensible defaults
func Load() *Config {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	return &Config{
		ServerPort:        getEnv("PORT", "3000"),
		DatabaseType:      strings.ToLower(getEnv("DATABASE_TYPE", "sqlite")),
		DatabasePath:      getEnv("DB_PATH", "./amcmath.db"),
		DatabaseURL:       getEnv("DATABASE_POOL_URL", os.Getenv("DATABASE_URL")),
		JWTSecret:         getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTTTL:            getDuration("JWT_TTL", 7*24*time.Hour),
		FrontendOrigins:   splitList(os.Getenv("FRONTEND_ORIGIN")),
		LogMode:           getEnv("LOG_MODE", "dev"),
		CatalogPath:       getEnv("CATALOG_PATH", "./seed/catalog.yaml"),
		AttemptRateLimit:  getInt("ATTEMPT_RATE_LIMIT", 30),
		AttemptRateWindow: getDuration("ATTEMPT_RATE_WINDOW", time.Minute),
	}
}

// Validate reports configuration that would leave the server unusable or unsafe
func (c *Config) Validate() error {
	var errs []error

	switch c.DatabaseType {
	case "sqlite", "sqlite3":
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_TYPE %q", c.DatabaseType))
	}

	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.AttemptRateLimit <= 0 {
		errs = append(errs, errors.New("ATTEMPT_RATE_LIMIT must be positive"))
	}
	if c.AttemptRateWindow <= 0 {
		errs = append(errs, errors.New("ATTEMPT_RATE_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the server runs with production logging
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.LogMode) {
	case "prod", "production":
		return true
	}
	return false
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
