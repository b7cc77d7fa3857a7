package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/felixgeelhaar/beaver/adapter/api"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr       string
	serveWithOutbox bool
	serveWithKeeper bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API, optionally running the outbox processor and the
payment keeper in the same process.

Examples:
  beaver serve
  beaver serve --addr 127.0.0.1:9000 --outbox --keeper`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := RequireApp()
		if err != nil {
			return err
		}

		cfg := api.DefaultServerConfig()
		if serveAddr != "" {
			cfg.Addr = serveAddr
		} else if a.Config.APIAddr != "" {
			cfg.Addr = a.Config.APIAddr
		}
		srv := api.NewServer(cfg, a.Container, a.Logger)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if serveWithOutbox {
			processor, err := a.NewOutboxProcessor()
			if err != nil {
				return err
			}
			g.Go(func() error { return ignoreCanceled(processor.Run(ctx)) })
		}
		if serveWithKeeper || a.Config.KeeperEnabled {
			k, err := a.NewKeeper()
			if err != nil {
				return err
			}
			g.Go(func() error { return ignoreCanceled(k.Run(ctx)) })
		}

		return g.Wait()
	},
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default API_ADDR)")
	serveCmd.Flags().BoolVar(&serveWithOutbox, "outbox", false, "also publish outbox events")
	serveCmd.Flags().BoolVar(&serveWithKeeper, "keeper", false, "also run the payment keeper (default KEEPER_ENABLED)")
	rootCmd.AddCommand(serveCmd)
}
