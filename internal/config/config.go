// Package config provides configuration management for the trust scanner service.
// It loads configuration from environment variables and .env files.
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
	Server    ServerConfig
	Provider  ProviderConfig
	Model     ModelConfig
	Cache     CacheConfig
	History   HistoryConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// ProviderConfig holds the upstream wallet-data provider configuration
type ProviderConfig struct {
	BaseURL           string
	SecretKey         string
	ChainID           string
	RequestsPerSecond float64
	MaxAttempts       int
}

// ModelConfig holds the upstream scoring-model configuration
type ModelConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Referer           string
	MaxTokens         int
	RequestsPerSecond float64
	MaxAttempts       int
}

// CacheBackend selects the analysis cache implementation
type CacheBackend string

const (
	// CacheBackendMemory uses the in-process TTL store
	CacheBackendMemory CacheBackend = "memory"
	// CacheBackendRedis uses a Redis-backed store
	CacheBackendRedis CacheBackend = "redis"
)

// CacheConfig holds analysis cache configuration
type CacheConfig struct {
	Backend CacheBackend
	TTL     time.Duration
	Redis   RedisConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// HistoryConfig holds the analysis history store configuration.
// History is optional; it is enabled by setting HISTORY_ENABLED=true.
type HistoryConfig struct {
	Enabled  bool
	Postgres PostgresConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RateLimitConfig holds API rate limiting configuration (requests per second)
type RateLimitConfig struct {
	FreeTier int
	PaidTier int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Provider: ProviderConfig{
			BaseURL:           getEnv("PROVIDER_BASE_URL", "https://nebula-api.thirdweb.com"),
			SecretKey:         getEnv("PROVIDER_SECRET_KEY", ""),
			ChainID:           getEnv("PROVIDER_CHAIN_ID", "30"),
			RequestsPerSecond: getEnvAsFloat("PROVIDER_RPS", 3),
			MaxAttempts:       getEnvAsInt("PROVIDER_MAX_ATTEMPTS", 1),
		},
		Model: ModelConfig{
			BaseURL:           getEnv("MODEL_BASE_URL", "https://openrouter.ai/api"),
			APIKey:            getEnv("MODEL_API_KEY", ""),
			Model:             getEnv("MODEL_NAME", "deepseek/deepseek-r1:free"),
			Referer:           getEnv("MODEL_REFERER", "http://localhost:3000"),
			MaxTokens:         getEnvAsInt("MODEL_MAX_TOKENS", 10000),
			RequestsPerSecond: getEnvAsFloat("MODEL_RPS", 1),
			MaxAttempts:       getEnvAsInt("MODEL_MAX_ATTEMPTS", 1),
		},
		Cache: CacheConfig{
			Backend: CacheBackend(getEnv("CACHE_BACKEND", string(CacheBackendMemory))),
			TTL:     getEnvAsDuration("CACHE_TTL", 24*time.Hour),
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			},
		},
		History: HistoryConfig{
			Enabled: getEnvAsBool("HISTORY_ENABLED", false),
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "trust_scanner"),
				User:           getEnv("POSTGRES_USER", "scanner"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
		},
		RateLimit: RateLimitConfig{
			FreeTier: getEnvAsInt("RATE_LIMIT_FREE_TIER", 5),
			PaidTier: getEnvAsInt("RATE_LIMIT_PAID_TIER", 50),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
