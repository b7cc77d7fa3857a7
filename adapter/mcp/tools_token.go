package mcp

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/assets/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

type tokenBalanceInput struct {
	Token   string `json:"token" jsonschema:"required"`
	Account string `json:"account,omitempty"`
	Spender string `json:"spender,omitempty"`
}

func registerTokenTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("token.balance").
		Description("Show an account's token balance (default: the server's caller) and, with spender, its allowance").
		Handler(func(ctx context.Context, input tokenBalanceInput) (*queries.BalanceDTO, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			q := queries.GetBalanceQuery{}
			var err error
			if q.Token, err = parseAddress("token", input.Token); err != nil {
				return nil, err
			}
			if q.Account, err = resolveCaller(app, input.Account); err != nil {
				return nil, err
			}
			if q.Spender, err = parseOptionalAddress("spender", input.Spender); err != nil {
				return nil, err
			}
			return app.GetBalance.Handle(ctx, q)
		})

	return nil
}
