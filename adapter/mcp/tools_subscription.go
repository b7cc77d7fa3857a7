package mcp

import (
	"context"
	"errors"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/commands"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

type subscriptionStartInput struct {
	Caller       string `json:"caller,omitempty"`
	ProductHash  string `json:"product_hash" jsonschema:"required"`
	Initiator    string `json:"initiator,omitempty"`
	MetadataHash string `json:"subscription_metadata_hash,omitempty"`
}

type subscriptionSetupInput struct {
	Caller                   string `json:"caller,omitempty"`
	Merchant                 string `json:"merchant" jsonschema:"required"`
	Token                    string `json:"token" jsonschema:"required"`
	Amount                   string `json:"amount" jsonschema:"required"`
	Period                   uint64 `json:"period" jsonschema:"required"`
	FreeTrial                uint64 `json:"free_trial_length,omitempty"`
	Grace                    uint64 `json:"payment_period,omitempty"`
	ProductMetadataHash      string `json:"metadata_hash,omitempty"`
	Initiator                string `json:"initiator,omitempty"`
	SubscriptionMetadataHash string `json:"subscription_metadata_hash,omitempty"`
}

type subscriptionHashInput struct {
	Caller           string `json:"caller,omitempty"`
	SubscriptionHash string `json:"subscription_hash" jsonschema:"required"`
}

type subscriptionListInput struct {
	Subscriber string `json:"subscriber,omitempty"`
	ActiveOnly bool   `json:"active_only,omitempty"`
}

type subscriptionDueInput struct {
	Initiator string `json:"initiator,omitempty"`
	At        uint64 `json:"at,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type changeInitiatorInput struct {
	Caller           string `json:"caller,omitempty"`
	SubscriptionHash string `json:"subscription_hash,omitempty"`
	OldInitiator     string `json:"old_initiator" jsonschema:"required"`
	NewInitiator     string `json:"new_initiator" jsonschema:"required"`
	All              bool   `json:"all,omitempty"`
}

func registerSubscriptionTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("subscription.start").
		Description("Subscribe the caller to a product. Without initiator the router's default initiator collects the charges").
		Handler(func(ctx context.Context, input subscriptionStartInput) (map[string]any, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			cmd := commands.StartSubscriptionCommand{}
			var err error
			if cmd.Caller, err = resolveCaller(app, input.Caller); err != nil {
				return nil, err
			}
			if cmd.ProductHash, err = parseHash("product_hash", input.ProductHash); err != nil {
				return nil, err
			}
			if cmd.Initiator, err = parseOptionalAddress("initiator", input.Initiator); err != nil {
				return nil, err
			}
			if cmd.MetadataHash, err = parseOptionalHash("subscription_metadata_hash", input.MetadataHash); err != nil {
				return nil, err
			}
			result, err := app.StartSubscription.Handle(ctx, cmd)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"subscription_hash": result.SubscriptionHash,
				"next_charge_at":    result.NextChargeAt,
				"created":           result.Created,
			}, nil
		})

	srv.Tool("subscription.setup").
		Description("Register a product (or reuse an identical one) and subscribe the caller in one step").
		Handler(func(ctx context.Context, input subscriptionSetupInput) (map[string]any, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			cmd := commands.CreateProductAndStartSubscriptionCommand{
				Period:    input.Period,
				FreeTrial: input.FreeTrial,
				Grace:     input.Grace,
			}
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
			if cmd.ProductMetadata, err = parseOptionalHash("metadata_hash", input.ProductMetadataHash); err != nil {
				return nil, err
			}
			if cmd.Initiator, err = parseOptionalAddress("initiator", input.Initiator); err != nil {
				return nil, err
			}
			if cmd.SubscriptionMetadata, err = parseOptionalHash("subscription_metadata_hash", input.SubscriptionMetadataHash); err != nil {
				return nil, err
			}
			result, err := app.CreateProductAndStartSubscription.Handle(ctx, cmd)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"product_hash":      result.ProductHash,
				"subscription_hash": result.SubscriptionHash,
				"next_charge_at":    result.NextChargeAt,
				"product_created":   result.ProductCreated,
			}, nil
		})

	srv.Tool("subscription.get").
		Description("Get a subscription by hash").
		Handler(func(ctx context.Context, input subscriptionHashInput) (*queries.SubscriptionDTO, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			hash, err := parseHash("subscription_hash", input.SubscriptionHash)
			if err != nil {
				return nil, err
			}
			return app.GetSubscription.Handle(ctx, queries.GetSubscriptionQuery{SubscriptionHash: hash})
		})

	srv.Tool("subscription.list").
		Description("List a subscriber's subscriptions (default: the server's caller)").
		Handler(func(ctx context.Context, input subscriptionListInput) ([]queries.SubscriptionDTO, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			subscriber, err := resolveCaller(app, input.Subscriber)
			if err != nil {
				return nil, err
			}
			return app.ListSubscriptions.Handle(ctx, queries.ListSubscriptionsQuery{
				Subscriber: subscriber,
				ActiveOnly: input.ActiveOnly,
			})
		})

	srv.Tool("subscription.due").
		Description("List active subscriptions whose next charge has fallen due, oldest first").
		Handler(func(ctx context.Context, input subscriptionDueInput) ([]queries.SubscriptionDTO, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			initiator, err := parseOptionalAddress("initiator", input.Initiator)
			if err != nil {
				return nil, err
			}
			return app.ListDue.Handle(ctx, queries.ListDueQuery{
				Initiator: initiator,
				At:        sharedDomain.Timestamp(input.At),
				Limit:     input.Limit,
			})
		})

	srv.Tool("subscription.terminate").
		Description("End a subscription. Only its subscriber or initiator may do so").
		Handler(func(ctx context.Context, input subscriptionHashInput) (map[string]any, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			caller, err := resolveCaller(app, input.Caller)
			if err != nil {
				return nil, err
			}
			hash, err := parseHash("subscription_hash", input.SubscriptionHash)
			if err != nil {
				return nil, err
			}
			result, err := app.TerminateSubscription.Handle(ctx, commands.TerminateSubscriptionCommand{
				Caller:           caller,
				SubscriptionHash: hash,
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"subscription_hash": hash, "terminated": result.Terminated}, nil
		})

	srv.Tool("subscription.change_initiator").
		Description("Hand billing to a new initiator, for one subscription or with all=true for every active subscription of the caller assigned to old_initiator").
		Handler(func(ctx context.Context, input changeInitiatorInput) (map[string]any, error) {
			if app.Container == nil {
				return nil, errNoStorage
			}
			caller, err := resolveCaller(app, input.Caller)
			if err != nil {
				return nil, err
			}
			oldInitiator, err := parseAddress("old_initiator", input.OldInitiator)
			if err != nil {
				return nil, err
			}
			newInitiator, err := parseAddress("new_initiator", input.NewInitiator)
			if err != nil {
				return nil, err
			}

			var result *commands.ChangeInitiatorResult
			switch {
			case input.All && input.SubscriptionHash == "":
				result, err = app.ChangeInitiatorForAll.Handle(ctx, commands.ChangeInitiatorForAllCommand{
					Caller:       caller,
					OldInitiator: oldInitiator,
					NewInitiator: newInitiator,
				})
			case !input.All && input.SubscriptionHash != "":
				hash, perr := parseHash("subscription_hash", input.SubscriptionHash)
				if perr != nil {
					return nil, perr
				}
				result, err = app.ChangeInitiator.Handle(ctx, commands.ChangeInitiatorCommand{
					Caller:           caller,
					SubscriptionHash: hash,
					OldInitiator:     oldInitiator,
					NewInitiator:     newInitiator,
				})
			default:
				return nil, errors.New("give either subscription_hash or all=true")
			}
			if err != nil {
				return nil, err
			}
			return map[string]any{"subscription_hashes": result.SubscriptionHashes}, nil
		})

	return nil
}
