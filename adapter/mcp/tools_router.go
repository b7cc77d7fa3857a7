package mcp

import (
	"context"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	internalApp "github.com/felixgeelhaar/beaver/internal/app"
	"github.com/felixgeelhaar/mcp-go"
)

type routerInfo struct {
	Params  internalApp.RouterParams `json:"params"`
	Backend string                   `json:"backend"`
	Version string                   `json:"version"`
}

type healthReport struct {
	Status string                 `json:"status"`
	Ready  bool                   `json:"ready"`
	Checks map[string]healthCheck `json:"checks"`
}

type healthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func registerRouterTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("router.info").
		Description("Show the router's parameters: owner, default initiator, treasury, custody and protocol fee rate").
		Handler(func(ctx context.Context, input struct{}) (*routerInfo, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			return &routerInfo{Params: app.Params, Backend: app.Backend, Version: cli.Version}, nil
		})

	srv.Tool("router.health").
		Description("Check the router's storage, cache and broker connections").
		Handler(func(ctx context.Context, input struct{}) (*healthReport, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			report := app.Health.Check(ctx)
			out := &healthReport{Status: string(report.Status), Ready: report.Ready(), Checks: make(map[string]healthCheck, len(report.Checks))}
			for name, r := range report.Checks {
				out.Checks[name] = healthCheck{Status: string(r.Status), Message: r.Message}
			}
			return out, nil
		})

	return nil
}
