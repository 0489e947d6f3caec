package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // calendar days must not depend on the host zoneinfo
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Database (empty URL runs on the in-memory store)
	DatabaseURL  string
	DBMaxConns   int
	DBTimeout    time.Duration
	MigrateOnRun bool

	// Ledger rules
	Timezone        string
	DueSoonDays     int
	DefaultPageSize int
	AlertPageSize   int

	// External services
	SalesAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	SaleCacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// JWT (tokens are issued by the auth collaborator)
	JWTSecret string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		DBMaxConns:   getEnvInt("DB_MAX_CONNS", 10),
		DBTimeout:    getEnvDuration("DB_TIMEOUT", 5*time.Second),
		MigrateOnRun: getEnvBool("DB_MIGRATE", true),

		Timezone:        getEnv("LEDGER_TIMEZONE", "America/Sao_Paulo"),
		DueSoonDays:     getEnvInt("DUE_SOON_DAYS", 7),
		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 25),
		AlertPageSize:   getEnvInt("ALERT_PAGE_SIZE", 50),

		SalesAPIURL: getEnv("SALES_API_URL", "http://localhost:8081"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 20),

		SaleCacheTTL: getEnvDuration("SALE_CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

// Location resolves the ledger timezone that defines calendar-day boundaries.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate rejects settings the ledger cannot run with.
func (c *Config) Validate() error {
	if c.DueSoonDays < 0 {
		return fmt.Errorf("DUE_SOON_DAYS must not be negative, got %d", c.DueSoonDays)
	}
	if c.DefaultPageSize < 1 || c.AlertPageSize < 1 {
		return fmt.Errorf("page sizes must be positive, got %d and %d", c.DefaultPageSize, c.AlertPageSize)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
