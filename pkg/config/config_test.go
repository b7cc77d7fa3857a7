package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var routerEnv = []string{
	"APP_ENV", "LOG_LEVEL", "BEAVER_VERSION",
	"DATABASE_URL", "DATABASE_DRIVER", "SQLITE_PATH",
	"REDIS_URL", "RABBITMQ_URL",
	"ROUTER_OWNER", "ROUTER_DEFAULT_INITIATOR", "ROUTER_TREASURY", "ROUTER_CUSTODY", "ROUTER_FEE_RATE",
	"PRODUCT_CACHE_SIZE", "PRODUCT_CACHE_TTL",
	"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES", "OUTBOX_STATS_INTERVAL",
	"OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL", "OUTBOX_PROCESSOR_ENABLED",
	"KEEPER_INITIATOR", "KEEPER_INTERVAL", "KEEPER_RATE", "KEEPER_BURST", "KEEPER_CONCURRENCY",
	"KEEPER_COMPENSATION", "KEEPER_BATCH_SIZE", "KEEPER_ENABLED",
	"WORKER_HEALTH_ADDR", "API_ADDR", "METRICS_ADDR", "MCP_ADDR", "MCP_AUTH_TOKEN",
	"BEAVER_CALLER",
}

// blankEnv empties every variable Load reads; an empty value counts as unset.
func blankEnv(t *testing.T, set map[string]string) {
	t.Helper()
	for _, k := range routerEnv {
		t.Setenv(k, "")
	}
	for k, v := range set {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	blankEnv(t, nil)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.True(t, cfg.LocalMode)
	assert.Equal(t, "0", cfg.RouterFeeRate)
	assert.Equal(t, 1024, cfg.ProductCacheSize)
	assert.Equal(t, 24*time.Hour, cfg.ProductCacheTTL)
	assert.Equal(t, 100*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.True(t, cfg.OutboxProcessorEnabled)
	assert.Equal(t, 30*time.Second, cfg.KeeperInterval)
	assert.False(t, cfg.KeeperEnabled)
	assert.Equal(t, cfg.RouterDefaultInitiator, cfg.KeeperInitiator)
	assert.Empty(t, cfg.Caller)
}

func TestLoad_DriverSelection(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		driver    string
		localMode bool
	}{
		{"postgres scheme", map[string]string{"DATABASE_URL": "postgres://u:p@db:5432/beaver"}, "postgres", false},
		{"postgresql scheme", map[string]string{"DATABASE_URL": "postgresql://db/beaver"}, "postgres", false},
		{"file url stays sqlite", map[string]string{"DATABASE_URL": "/var/lib/beaver.db"}, "sqlite", true},
		{"explicit memory", map[string]string{"DATABASE_DRIVER": "memory"}, "memory", true},
		{"explicit wins over url", map[string]string{"DATABASE_DRIVER": "sqlite", "DATABASE_URL": "postgres://db/x"}, "sqlite", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blankEnv(t, tt.env)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.driver, cfg.DatabaseDriver)
			assert.Equal(t, tt.localMode, cfg.LocalMode)
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	blankEnv(t, map[string]string{
		"APP_ENV":                  "production",
		"ROUTER_FEE_RATE":          "10000000000000000",
		"PRODUCT_CACHE_TTL":        "5m",
		"OUTBOX_BATCH_SIZE":        "25",
		"OUTBOX_PROCESSOR_ENABLED": "false",
		"KEEPER_INITIATOR":         "0x00000000000000000000000000000000000000aa",
		"KEEPER_RATE":              "2.5",
		"KEEPER_ENABLED":           "true",
		"BEAVER_CALLER":            "0x00000000000000000000000000000000000000bb",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "10000000000000000", cfg.RouterFeeRate)
	assert.Equal(t, 5*time.Minute, cfg.ProductCacheTTL)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
	assert.False(t, cfg.OutboxProcessorEnabled)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", cfg.KeeperInitiator)
	assert.InEpsilon(t, 2.5, cfg.KeeperRatePerSec, 1e-9)
	assert.True(t, cfg.KeeperEnabled)
	assert.Equal(t, "0x00000000000000000000000000000000000000bb", cfg.Caller)
}

func TestLoad_UnparsableValuesKeepDefaults(t *testing.T) {
	blankEnv(t, map[string]string{
		"PRODUCT_CACHE_SIZE": "many",
		"KEEPER_INTERVAL":    "soon",
		"KEEPER_RATE":        "fast",
		"KEEPER_ENABLED":     "perhaps",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.ProductCacheSize)
	assert.Equal(t, 30*time.Second, cfg.KeeperInterval)
	assert.InEpsilon(t, 10.0, cfg.KeeperRatePerSec, 1e-9)
	assert.False(t, cfg.KeeperEnabled)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "mysql"}, `"mysql"`},
		{"postgres without url", map[string]string{"DATABASE_DRIVER": "postgres"}, "DATABASE_URL"},
		{"zero interval", map[string]string{"KEEPER_INTERVAL": "0s"}, "KEEPER_INTERVAL"},
		{"negative rate", map[string]string{"KEEPER_RATE": "-1"}, "KEEPER_RATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blankEnv(t, tt.env)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
