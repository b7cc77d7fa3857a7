package mcp

import (
	"context"

	catalogCommands "github.com/felixgeelhaar/beaver/internal/catalog/application/commands"
	catalogQueries "github.com/felixgeelhaar/beaver/internal/catalog/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

type productCreateInput struct {
	Caller       string `json:"caller,omitempty"`
	Merchant     string `json:"merchant" jsonschema:"required"`
	Token        string `json:"token" jsonschema:"required"`
	Amount       string `json:"amount" jsonschema:"required"`
	Period       uint64 `json:"period" jsonschema:"required"`
	FreeTrial    uint64 `json:"free_trial_length,omitempty"`
	Grace        uint64 `json:"payment_period,omitempty"`
	MetadataHash string `json:"metadata_hash,omitempty"`
}

type productHashInput struct {
	ProductHash string `json:"product_hash" jsonschema:"required"`
}

type productListInput struct {
	Merchant string `json:"merchant,omitempty"`
}

func registerProductTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("product.create").
		Description("Register a product: merchant, token, amount per period and billing period in seconds. Identical terms return the existing product").
		Handler(func(ctx context.Context, input productCreateInput) (map[string]any, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			cmd := catalogCommands.CreateProductCommand{Period: input.Period, FreeTrial: input.FreeTrial, Grace: input.Grace}
			var err error
			if cmd.Caller, err = resolveCaller(app, input.Caller); err != nil {
				return nil, err
			}
			if cmd.Merchant, err = parseAddress("merchant", input.Merchant); err != nil {
				return nil, err
			}
			if cmd.Token, err = parseAddress("token", input.Token); err != nil {
				return nil, err
			}
			if cmd.Amount, err = parseAmount("amount", input.Amount); err != nil {
				return nil, err
			}
			if cmd.MetadataHash, err = parseOptionalHash("metadata_hash", input.MetadataHash); err != nil {
				return nil, err
			}
			result, err := app.CreateProduct.Handle(ctx, cmd)
			if err != nil {
				return nil, err
			}
			return map[string]any{"product_hash": result.ProductHash, "created": result.Created}, nil
		})

	srv.Tool("product.get").
		Description("Get a product by hash").
		Handler(func(ctx context.Context, input productHashInput) (*catalogQueries.ProductDTO, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			hash, err := parseHash("product_hash", input.ProductHash)
			if err != nil {
				return nil, err
			}
			return app.GetProduct.Handle(ctx, catalogQueries.GetProductQuery{ProductHash: hash})
		})

	srv.Tool("product.list").
		Description("List a merchant's products (default: the server's caller)").
		Handler(func(ctx context.Context, input productListInput) ([]catalogQueries.ProductDTO, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			merchant, err := resolveCaller(app, input.Merchant)
			if err != nil {
				return nil, err
			}
			return app.ListProducts.Handle(ctx, catalogQueries.ListProductsQuery{Merchant: merchant})
		})

	return nil
}
