package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	mcpinternal "github.com/felixgeelhaar/beaver/internal/mcp"
	"github.com/spf13/cobra"
)

// Cmd groups the MCP commands.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the router to MCP clients",
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start an MCP server exposing the router's operations as tools. Tools act
as the --as account unless a call names its own caller.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		// --as is optional here
		if caller, err := cli.CallerAddress(); err == nil {
			app.Caller = caller
		}

		cfg := *app.Config
		if serveAddr != "" {
			cfg.MCPAddr = serveAddr
		}

		logger := app.Logger
		if logger == nil {
			logger = slog.Default()
		}
		err = mcpinternal.Serve(cmd.Context(), &cfg, app, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	Cmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: MCP_ADDR)")
}
