package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(LogConfig{Output: &buf}).Info("product created", "merchant", "0xabc")
		assert.Contains(t, buf.String(), "product created")
		assert.Contains(t, buf.String(), "merchant=0xabc")
	})

	t.Run("json with service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf, Service: "beaver-keeper", Version: "1.0.0"})
		logger.Info("scan")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "scan", entry["msg"])
		assert.Equal(t, "beaver-keeper", entry["service"])
		assert.Equal(t, "1.0.0", entry["version"])
	})

	t.Run("level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "warn", Output: &buf})
		logger.Info("hidden")
		logger.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestNewLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf}).With("component", "keeper")

	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithCaller(ctx, "0x00000000000000000000000000000000000000b0")
	logger.InfoContext(ctx, "payment collected")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "corr-1", entry[CorrelationIDKey])
	assert.Equal(t, "req-1", entry[RequestIDKey])
	assert.Equal(t, "0x00000000000000000000000000000000000000b0", entry[CallerKey])
	assert.Equal(t, "keeper", entry["component"], "With keeps the context handler")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestLoggerFor(t *testing.T) {
	logger := LoggerFor("beaver-keeper", "1.2.3", "production", "debug")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = LoggerFor("beaver", "dev", "development", "")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewRequestContext(t *testing.T) {
	ctx := NewRequestContext(context.Background(), "inbound")
	assert.Equal(t, "inbound", CorrelationIDFromContext(ctx))
	assert.NotEmpty(t, RequestIDFromContext(ctx))

	ctx = NewRequestContext(context.Background(), "")
	assert.NotEmpty(t, CorrelationIDFromContext(ctx))
	assert.Empty(t, CallerFromContext(ctx))
}
