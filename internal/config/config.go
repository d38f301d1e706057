// Package config provides configuration management for the tGHSX vault
// backend. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Chain     ChainConfig
	Oracle    OracleConfig
	Sync      SyncConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ChainConfig holds blockchain connectivity and contract configuration
type ChainConfig struct {
	RPCPrimary      string
	RPCSecondary    string
	ChainID         int64
	VaultAddress    string
	TokenAddress    string
	AdminPrivateKey string
	EthUsdFeed      string
	UsdGhsFeed      string
	CallTimeout     time.Duration
	ConfirmTimeout  time.Duration
}

// OracleConfig holds price oracle configuration
type OracleConfig struct {
	CacheTTL     time.Duration
	MaxFeedAge   time.Duration
	FetchRetries int
}

// SyncConfig holds background worker configuration
type SyncConfig struct {
	Interval          time.Duration // vault snapshot sync cadence
	FailureBackoff    time.Duration // retry delay after a cycle-fatal error
	EventPollInterval time.Duration
	MaxBlocksPerPoll  int
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	AdminUserID string
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from a .env file and environment variables
func Load() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "tghsx"),
				User:           getEnv("POSTGRES_USER", "tghsx"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Chain: ChainConfig{
			RPCPrimary:      getEnv("RPC_PRIMARY", firstEnv("AMOY_RPC_URL", "RPC_URL", "WEB3_RPC_URL")),
			RPCSecondary:    getEnv("RPC_SECONDARY", ""),
			ChainID:         int64(getEnvAsInt("CHAIN_ID", 80002)),
			VaultAddress:    getEnv("COLLATERAL_VAULT_ADDRESS", ""),
			TokenAddress:    getEnv("TGHSX_TOKEN_ADDRESS", ""),
			AdminPrivateKey: getEnv("ADMIN_PRIVATE_KEY", ""),
			EthUsdFeed:      getEnv("CHAINLINK_ETH_USD_PRICE_FEED_ADDRESS", ""),
			UsdGhsFeed:      getEnv("CHAINLINK_USD_GHS_PRICE_FEED_ADDRESS", ""),
			CallTimeout:     getEnvAsDuration("CHAIN_CALL_TIMEOUT", 30*time.Second),
			ConfirmTimeout:  getEnvAsDuration("CHAIN_CONFIRM_TIMEOUT", 180*time.Second),
		},
		Oracle: OracleConfig{
			CacheTTL:     getEnvAsDuration("ORACLE_CACHE_TTL", 60*time.Second),
			MaxFeedAge:   getEnvAsDuration("ORACLE_MAX_FEED_AGE", time.Hour),
			FetchRetries: getEnvAsInt("ORACLE_FETCH_RETRIES", 3),
		},
		Sync: SyncConfig{
			Interval:          getEnvAsDuration("SYNC_INTERVAL", time.Hour),
			FailureBackoff:    getEnvAsDuration("SYNC_FAILURE_BACKOFF", 10*time.Second),
			EventPollInterval: getEnvAsDuration("EVENT_POLL_INTERVAL", 15*time.Second),
			MaxBlocksPerPoll:  getEnvAsInt("EVENT_MAX_BLOCKS_PER_POLL", 30),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			TokenTTL:    getEnvAsDuration("JWT_TOKEN_TTL", 24*time.Hour),
			AdminUserID: getEnv("ADMIN_USER_ID", ""),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks the settings that have no usable defaults
func (c *Config) Validate() error {
	var missing []string
	if c.Chain.RPCPrimary == "" {
		missing = append(missing, "RPC_PRIMARY")
	}
	if c.Chain.VaultAddress == "" {
		missing = append(missing, "COLLATERAL_VAULT_ADDRESS")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// PostgresURL builds a connection URL for the migration tooling
func (c *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty value among several variable names
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
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
