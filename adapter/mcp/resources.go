package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	catalogQueries "github.com/felixgeelhaar/beaver/internal/catalog/application/queries"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

var errNoCaller = errors.New("no caller configured")

// resource is a read-only JSON view of router state.
type resource struct {
	uri         string
	name        string
	description string
	read        func(ctx context.Context, app *cli.App) (any, error)
}

var resources = []resource{
	{
		uri:         "beaver://router",
		name:        "Router",
		description: "Router parameters and storage backend",
		read: func(_ context.Context, app *cli.App) (any, error) {
			return routerInfo{Params: app.Params, Backend: app.Backend, Version: cli.Version}, nil
		},
	},
	{
		uri:         "beaver://products",
		name:        "Products",
		description: "Products registered by the server's caller",
		read: func(ctx context.Context, app *cli.App) (any, error) {
			if app.Caller.IsZero() {
				return nil, errNoCaller
			}
			return app.ListProducts.Handle(ctx, catalogQueries.ListProductsQuery{Merchant: app.Caller})
		},
	},
	{
		uri:         "beaver://subscriptions",
		name:        "Subscriptions",
		description: "All subscriptions of the server's caller",
		read: func(ctx context.Context, app *cli.App) (any, error) {
			if app.Caller.IsZero() {
				return nil, errNoCaller
			}
			return app.ListSubscriptions.Handle(ctx, queries.ListSubscriptionsQuery{Subscriber: app.Caller})
		},
	},
	{
		uri:         "beaver://subscriptions/due",
		name:        "Due Subscriptions",
		description: "Active subscriptions whose next charge has fallen due, oldest first",
		read: func(ctx context.Context, app *cli.App) (any, error) {
			return app.ListDue.Handle(ctx, queries.ListDueQuery{})
		},
	},
}

// RegisterResources registers MCP resources that expose router state.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App
	for _, r := range resources {
		read := r.read
		srv.Resource(r.uri).
			Name(r.name).
			Description(r.description).
			MimeType("application/json").
			Handler(func(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
				if app == nil || app.Container == nil {
					return nil, errNoStorage
				}
				v, err := read(ctx, app)
				if err != nil {
					return nil, err
				}
				return jsonResource(uri, v)
			})
	}
	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", uri, err)
	}
	return &mcp.ResourceContent{URI: uri, MimeType: "application/json", Text: string(data)}, nil
}
