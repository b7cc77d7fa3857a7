package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/app"
	mcpinternal "github.com/felixgeelhaar/beaver/internal/mcp"
	"github.com/felixgeelhaar/beaver/pkg/config"
	"github.com/felixgeelhaar/beaver/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(observability.LogConfig{Output: os.Stderr, Service: "beaver-mcp", Version: cli.Version})

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = observability.NewLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  logFormat(cfg),
		Output:  os.Stderr,
		Service: "beaver-mcp",
		Version: cli.Version,
	})

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	cliApp, err := mcpinternal.NewCLIApp(container, cfg.Caller)
	if err != nil {
		logger.Error("invalid BEAVER_CALLER", "error", err)
		os.Exit(1)
	}

	if err := mcpinternal.Serve(ctx, cfg, cliApp, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}

func logFormat(cfg *config.Config) observability.LogFormat {
	if cfg.IsProduction() {
		return observability.LogFormatJSON
	}
	return observability.LogFormatText
}
