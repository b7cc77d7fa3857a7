package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/app"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/beaver/pkg/config"
	"github.com/felixgeelhaar/beaver/pkg/observability"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		observability.LoggerFor("beaver-worker", cli.Version, "", "").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.LoggerFor("beaver-worker", cli.Version, cfg.AppEnv, cfg.LogLevel)
	logger.Info("starting beaver worker", "env", cfg.AppEnv, "driver", cfg.DatabaseDriver)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	processor, err := container.NewOutboxProcessor()
	if err != nil {
		logger.Error("failed to create outbox processor", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return processor.Run(gctx) })

	if cfg.KeeperEnabled {
		k, err := container.NewKeeper()
		if err != nil {
			logger.Error("failed to create keeper", "error", err)
			os.Exit(1)
		}
		g.Go(func() error { return k.Run(gctx) })
	}

	if cfg.WorkerHealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthRouter(processor, container.Health),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		statsTicker := time.NewTicker(cfg.OutboxStatsInterval)
		defer statsTicker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-statsTicker.C:
				s := processor.GetStats()
				logger.Info("outbox stats", "published", s.PublishedCount, "failed", s.FailedCount,
					"dead", s.DeadCount, "lag_seconds", s.LagSeconds, "last_error", s.LastError)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func healthRouter(processor *outbox.Processor, health *observability.HealthRegistry) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Status string `json:"status"`
			outbox.Stats
		}{"ok", processor.GetStats()})
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := health.Check(checkCtx)
		w.Header().Set("Content-Type", "application/json")
		if !report.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	}).Methods(http.MethodGet)

	return router
}
