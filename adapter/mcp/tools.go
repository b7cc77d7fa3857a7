package mcp

import (
	"errors"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/mcp-go"
)

// ToolDependencies is what every tool handler reads from.
type ToolDependencies struct {
	App *cli.App
}

var toolGroups = []func(*mcp.Server, ToolDependencies) error{
	registerRouterTools,
	registerProductTools,
	registerSubscriptionTools,
	registerPaymentTools,
	registerTokenTools,
}

// RegisterCLITools registers one tool per router operation. Tools taking a
// caller fall back to the app's default caller.
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	switch {
	case srv == nil:
		return errors.New("mcp: server is required")
	case deps.App == nil:
		return errors.New("mcp: app is required")
	}
	for _, register := range toolGroups {
		if err := register(srv, deps); err != nil {
			return err
		}
	}
	return nil
}
