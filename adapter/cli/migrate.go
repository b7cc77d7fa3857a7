package cli

import (
	"fmt"

	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/beaver/pkg/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply pending schema migrations to the configured database.

The router also migrates on startup; this command lets deployments run
migrations as a separate step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DatabaseDriver == "memory" {
			fmt.Fprintln(cmd.OutOrStdout(), "memory driver has no schema")
			return nil
		}

		dbCfg := database.Config{
			Driver:     database.Driver(cfg.DatabaseDriver),
			URL:        cfg.DatabaseURL,
			SQLitePath: cfg.SQLitePath,
		}
		ctx := cmd.Context()
		conn, err := database.NewConnection(ctx, dbCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()

		if err := migrations.Run(ctx, conn); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", conn.Driver())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
