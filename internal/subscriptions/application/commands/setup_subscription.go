package commands

import (
	"context"

	catalogCommands "github.com/felixgeelhaar/beaver/internal/catalog/application/commands"
	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// CreateProductAndStartSubscriptionCommand registers a product and subscribes
// Caller to it in one transaction.
type CreateProductAndStartSubscriptionCommand struct {
	Caller               sharedDomain.Address
	Merchant             sharedDomain.Address
	Token                sharedDomain.Address
	Amount               sharedDomain.Amount
	Period               uint64
	FreeTrial            uint64
	Grace                uint64
	ProductMetadata      sharedDomain.Hash
	SubscriptionMetadata sharedDomain.Hash
	Initiator            sharedDomain.Address
}

// CommandName implements application.Command.
func (CreateProductAndStartSubscriptionCommand) CommandName() string {
	return "subscriptions.create_product_and_start"
}

// CreateProductAndStartSubscriptionResult identifies both records.
type CreateProductAndStartSubscriptionResult struct {
	ProductHash      sharedDomain.Hash
	SubscriptionHash sharedDomain.Hash
	NextChargeAt     sharedDomain.Timestamp
	ProductCreated   bool
}

// CreateProductAndStartSubscriptionHandler composes product registration and
// subscription start. Either both persist or neither does.
type CreateProductAndStartSubscriptionHandler struct {
	createProduct *catalogCommands.CreateProductHandler
	start         *StartSubscriptionHandler
	uow           sharedApplication.UnitOfWork
}

// NewCreateProductAndStartSubscriptionHandler creates the composite handler.
func NewCreateProductAndStartSubscriptionHandler(
	createProduct *catalogCommands.CreateProductHandler,
	start *StartSubscriptionHandler,
	uow sharedApplication.UnitOfWork,
) *CreateProductAndStartSubscriptionHandler {
	return &CreateProductAndStartSubscriptionHandler{createProduct: createProduct, start: start, uow: uow}
}

// Handle executes the CreateProductAndStartSubscriptionCommand.
func (h *CreateProductAndStartSubscriptionHandler) Handle(ctx context.Context, cmd CreateProductAndStartSubscriptionCommand) (*CreateProductAndStartSubscriptionResult, error) {
	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*CreateProductAndStartSubscriptionResult, error) {
		product, err := h.createProduct.Handle(txCtx, catalogCommands.CreateProductCommand{
			Caller:       cmd.Caller,
			Merchant:     cmd.Merchant,
			MetadataHash: cmd.ProductMetadata,
			Token:        cmd.Token,
			Amount:       cmd.Amount,
			Period:       cmd.Period,
			FreeTrial:    cmd.FreeTrial,
			Grace:        cmd.Grace,
		})
		if err != nil {
			return nil, err
		}
		sub, err := h.start.Handle(txCtx, StartSubscriptionCommand{
			Caller:       cmd.Caller,
			ProductHash:  product.ProductHash,
			Initiator:    cmd.Initiator,
			MetadataHash: cmd.SubscriptionMetadata,
		})
		if err != nil {
			return nil, err
		}
		return &CreateProductAndStartSubscriptionResult{
			ProductHash:      product.ProductHash,
			SubscriptionHash: sub.SubscriptionHash,
			NextChargeAt:     sub.NextChargeAt,
			ProductCreated:   product.Created,
		}, nil
	})
}

var _ sharedApplication.CommandHandler[CreateProductAndStartSubscriptionCommand, *CreateProductAndStartSubscriptionResult] = (*CreateProductAndStartSubscriptionHandler)(nil)
