package mcp

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/payments/application/commands"
	"github.com/felixgeelhaar/beaver/internal/payments/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

type paymentMakeInput struct {
	Caller           string `json:"caller,omitempty"`
	SubscriptionHash string `json:"subscription_hash" jsonschema:"required"`
	Compensation     string `json:"compensation,omitempty"`
}

type paymentListInput struct {
	SubscriptionHash string `json:"subscription_hash" jsonschema:"required"`
}

func registerPaymentTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("payment.make").
		Description("Collect the charge that is currently due. The caller must be the subscription's initiator and receives compensation out of the charge").
		Handler(func(ctx context.Context, input paymentMakeInput) (map[string]any, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			cmd := commands.MakePaymentCommand{}
			var err error
			if cmd.Caller, err = resolveCaller(app, input.Caller); err != nil {
				return nil, err
			}
			if cmd.SubscriptionHash, err = parseHash("subscription_hash", input.SubscriptionHash); err != nil {
				return nil, err
			}
			if cmd.Compensation, err = parseAmount("compensation", input.Compensation); err != nil {
				return nil, err
			}
			result, err := app.MakePayment.Handle(ctx, cmd)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"subscription_hash": result.SubscriptionHash,
				"due_at":            result.DueAt,
				"next_charge_at":    result.NextChargeAt,
				"split":             result.Split,
			}, nil
		})

	srv.Tool("payment.list").
		Description("List the payment receipts of a subscription").
		Handler(func(ctx context.Context, input paymentListInput) ([]queries.PaymentDTO, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			hash, err := parseHash("subscription_hash", input.SubscriptionHash)
			if err != nil {
				return nil, err
			}
			return app.ListPayments.Handle(ctx, queries.ListPaymentsQuery{SubscriptionHash: hash})
		})

	return nil
}
