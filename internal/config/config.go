// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// VirusTotal
	VTAPIKey     string // optional, url_scan signal is unconfigured without it
	VTBaseURL    string
	ScanCacheTTL time.Duration

	// Blockchain settings (tx_history signal)
	RPCURL  string // optional, tx_history signal is unconfigured without it
	ChainID int64

	// Signal invocation
	ProviderTimeout time.Duration

	// Security
	AdminSecret  string // Admin API secret for listing management
	RateLimitRPM int

	// Observability
	OTLPEndpoint string
}

const (
	DefaultPort            = "8080"
	DefaultEnv             = "development"
	DefaultLogLevel        = "info"
	DefaultVTBaseURL       = "https://www.virustotal.com/api/v3"
	DefaultChainID         = 1 // Ethereum mainnet
	DefaultRateLimitRPM    = 120
	DefaultProviderTimeout = 5 * time.Second
	DefaultScanCacheTTL    = 10 * time.Minute
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", DefaultPort),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:     os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		VTAPIKey:        os.Getenv("VT_API_KEY"),
		VTBaseURL:       getEnv("VT_BASE_URL", DefaultVTBaseURL),
		ScanCacheTTL:    getEnvDuration("SCAN_CACHE_TTL", DefaultScanCacheTTL),
		RPCURL:          os.Getenv("RPC_URL"),
		ChainID:         getEnvInt64("CHAIN_ID", DefaultChainID),
		ProviderTimeout: getEnvMillis("PROVIDER_TIMEOUT_MS", DefaultProviderTimeout),
		AdminSecret:     os.Getenv("ADMIN_SECRET"),
		RateLimitRPM:    int(getEnvInt64("RATE_LIMIT_RPM", int64(DefaultRateLimitRPM))),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent
func (c *Config) Validate() error {
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_MS must be positive")
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}
	if c.IsProduction() && c.AdminSecret == "" {
		return fmt.Errorf("ADMIN_SECRET is required in production")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
