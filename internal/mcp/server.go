// Package mcp runs the router's MCP server over HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	mcplocal "github.com/felixgeelhaar/beaver/adapter/mcp"
	"github.com/felixgeelhaar/beaver/internal/app"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/pkg/config"
	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
)

// NewCLIApp wraps container for the tools. An empty caller leaves the app
// without a default account.
func NewCLIApp(container *app.Container, caller string) (*cli.App, error) {
	cliApp := cli.NewApp(container)
	if caller == "" {
		return cliApp, nil
	}
	addr, err := sharedDomain.ParseAddress(caller)
	if err != nil {
		return nil, fmt.Errorf("invalid caller: %w", err)
	}
	cliApp.Caller = addr
	return cliApp, nil
}

// NewServer builds the MCP server with every router tool, resource and prompt.
func NewServer(cliApp *cli.App) (*mcpgo.Server, error) {
	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    "beaver-mcp",
		Version: cli.Version,
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})
	deps := mcplocal.ToolDependencies{App: cliApp}
	for name, register := range map[string]func(*mcpgo.Server, mcplocal.ToolDependencies) error{
		"tools":     mcplocal.RegisterCLITools,
		"resources": mcplocal.RegisterResources,
		"prompts":   mcplocal.RegisterPrompts,
	} {
		if err := register(srv, deps); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return srv, nil
}

// Serve listens on cfg.MCPAddr until ctx is canceled. A configured
// MCPAuthToken is required as a bearer token on every request.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, logger *slog.Logger) error {
	if cfg == nil || cliApp == nil {
		return errors.New("mcp: config and app are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := NewServer(cliApp)
	if err != nil {
		return err
	}

	log := slogAdapter{logger.With("component", "mcp")}
	stack := middleware.DefaultStack(log)
	if cfg.MCPAuthToken != "" {
		auth := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
			cfg.MCPAuthToken: {ID: "beaver", Name: "beaver"},
		}))
		stack = append([]middleware.Middleware{middleware.Auth(auth, middleware.WithAuthLogger(log))}, stack...)
	} else {
		logger.Warn("MCP_AUTH_TOKEN not set, requests are unauthenticated")
	}
	if cliApp.Caller.IsZero() {
		logger.Warn("no default caller, every state-changing tool call must name one")
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr, "caller", cliApp.Caller.String())
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil, mcpgo.WithMiddleware(stack...))
}

// slogAdapter satisfies the middleware logger with slog.
type slogAdapter struct{ *slog.Logger }

func (l slogAdapter) Info(msg string, fields ...middleware.Field) {
	l.Logger.Info(msg, args(fields)...)
}
func (l slogAdapter) Warn(msg string, fields ...middleware.Field) {
	l.Logger.Warn(msg, args(fields)...)
}
func (l slogAdapter) Error(msg string, fields ...middleware.Field) {
	l.Logger.Error(msg, args(fields)...)
}
func (l slogAdapter) Debug(msg string, fields ...middleware.Field) {
	l.Logger.Debug(msg, args(fields)...)
}

func args(fields []middleware.Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}
