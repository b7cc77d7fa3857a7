package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/adapter/cli/keeper"
	"github.com/felixgeelhaar/beaver/adapter/cli/mcp"
	"github.com/felixgeelhaar/beaver/adapter/cli/payment"
	"github.com/felixgeelhaar/beaver/adapter/cli/product"
	"github.com/felixgeelhaar/beaver/adapter/cli/subscription"
	"github.com/felixgeelhaar/beaver/adapter/cli/token"
	"github.com/felixgeelhaar/beaver/internal/app"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/pkg/config"
	"github.com/felixgeelhaar/beaver/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		observability.LoggerFor("beaver", cli.Version, "", "warn").
			Warn("failed to load config, using the in-memory development store", "error", err)
		cfg = &config.Config{AppEnv: "development", DatabaseDriver: app.DriverMemory, LocalMode: true}
	}

	logger := observability.LoggerFor("beaver", cli.Version, cfg.AppEnv, cfg.LogLevel)
	cli.SetLogger(logger)

	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			// version and help still work without storage
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()

		cliApp = cli.NewApp(container)
		if cfg.Caller != "" {
			caller, err := sharedDomain.ParseAddress(cfg.Caller)
			if err != nil {
				logger.Error("invalid BEAVER_CALLER", "error", err)
				os.Exit(1)
			}
			cliApp.Caller = caller
		}
	}

	cli.SetApp(cliApp)

	cli.AddCommand(product.Cmd)
	cli.AddCommand(subscription.Cmd)
	cli.AddCommand(payment.Cmd)
	cli.AddCommand(token.Cmd)
	cli.AddCommand(keeper.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.Execute(ctx)
}
