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

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	Version  string

	// Database. DatabaseDriver is "postgres", "sqlite" or "memory".
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string
	LocalMode      bool

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL string

	// Router deployment parameters. Addresses are 0x-prefixed hex, the fee
	// rate is a fixed-point fraction scaled by 1e18.
	RouterOwner            string
	RouterDefaultInitiator string
	RouterTreasury         string
	RouterCustody          string
	RouterFeeRate          string

	// Product cache
	ProductCacheSize int
	ProductCacheTTL  time.Duration

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Keeper
	KeeperInitiator    string
	KeeperInterval     time.Duration
	KeeperRatePerSec   float64
	KeeperBurst        int
	KeeperConcurrency  int
	KeeperCompensation string
	KeeperBatchSize    int
	KeeperEnabled      bool

	// Servers
	WorkerHealthAddr string
	APIAddr          string
	MetricsAddr      string
	MCPAddr          string
	MCPAuthToken     string

	// Caller is the account the CLI and MCP server act as by default.
	Caller string
}

// Load reads the environment, after a .env file in the working directory if
// there is one. Variables already set win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()

	databaseURL := getEnv("DATABASE_URL", "")
	driver := getEnv("DATABASE_DRIVER", "")
	if driver == "" {
		if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
			driver = "postgres"
		} else {
			driver = "sqlite"
		}
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Version:  getEnv("BEAVER_VERSION", "dev"),

		DatabaseURL:    databaseURL,
		DatabaseDriver: driver,
		SQLitePath:     getEnv("SQLITE_PATH", ""),
		LocalMode:      driver == "sqlite" || driver == "memory",

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		RouterOwner:            getEnv("ROUTER_OWNER", "0x0000000000000000000000000000000000000001"),
		RouterDefaultInitiator: getEnv("ROUTER_DEFAULT_INITIATOR", "0x0000000000000000000000000000000000000001"),
		RouterTreasury:         getEnv("ROUTER_TREASURY", "0x0000000000000000000000000000000000000001"),
		RouterCustody:          getEnv("ROUTER_CUSTODY", "0x00000000000000000000000000000000000000be"),
		RouterFeeRate:          getEnv("ROUTER_FEE_RATE", "0"),

		ProductCacheSize: getIntEnv("PRODUCT_CACHE_SIZE", 1024),
		ProductCacheTTL:  getDurationEnv("PRODUCT_CACHE_TTL", 24*time.Hour),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		KeeperInitiator:    getEnv("KEEPER_INITIATOR", ""),
		KeeperInterval:     getDurationEnv("KEEPER_INTERVAL", 30*time.Second),
		KeeperRatePerSec:   getFloatEnv("KEEPER_RATE", 10),
		KeeperBurst:        getIntEnv("KEEPER_BURST", 5),
		KeeperConcurrency:  getIntEnv("KEEPER_CONCURRENCY", 4),
		KeeperCompensation: getEnv("KEEPER_COMPENSATION", "0"),
		KeeperBatchSize:    getIntEnv("KEEPER_BATCH_SIZE", 100),
		KeeperEnabled:      getBoolEnv("KEEPER_ENABLED", false),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
		APIAddr:          getEnv("API_ADDR", "0.0.0.0:8080"),
		MetricsAddr:      getEnv("METRICS_ADDR", ""),
		MCPAddr:          getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken:     getEnv("MCP_AUTH_TOKEN", ""),

		Caller: getEnv("BEAVER_CALLER", ""),
	}

	if cfg.KeeperInitiator == "" {
		cfg.KeeperInitiator = cfg.RouterDefaultInitiator
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate rejects settings the router cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.DatabaseDriver {
	case "sqlite", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not one of sqlite, postgres, memory", c.DatabaseDriver))
	}
	if c.OutboxPollInterval <= 0 || c.OutboxStatsInterval <= 0 || c.KeeperInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL, OUTBOX_STATS_INTERVAL and KEEPER_INTERVAL must be positive"))
	}
	if c.KeeperRatePerSec < 0 {
		errs = append(errs, errors.New("KEEPER_RATE must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parsed reads key with parse, keeping defaultValue when the variable is
// unset or does not parse.
func parsed[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	if value := os.Getenv(key); value != "" {
		if v, err := parse(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	return parsed(key, defaultValue, strconv.Atoi)
}

func getFloatEnv(key string, defaultValue float64) float64 {
	return parsed(key, defaultValue, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	return parsed(key, defaultValue, time.ParseDuration)
}

func getBoolEnv(key string, defaultValue bool) bool {
	return parsed(key, defaultValue, strconv.ParseBool)
}
