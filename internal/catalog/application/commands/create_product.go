package commands

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/catalog/domain"
	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/beaver/pkg/observability"
)

// CreateProductCommand registers a recurring-charge plan.
type CreateProductCommand struct {
	Caller       sharedDomain.Address
	Merchant     sharedDomain.Address
	MetadataHash sharedDomain.Hash
	Token        sharedDomain.Address
	Amount       sharedDomain.Amount
	Period       uint64
	FreeTrial    uint64
	Grace        uint64
}

// CommandName implements application.Command.
func (CreateProductCommand) CommandName() string { return "catalog.create_product" }

// Terms returns the product terms carried by the command.
func (c CreateProductCommand) Terms() sharedDomain.ProductTerms {
	return sharedDomain.ProductTerms{
		Merchant:     c.Merchant,
		MetadataHash: c.MetadataHash,
		Token:        c.Token,
		Amount:       c.Amount,
		Period:       c.Period,
		FreeTrial:    c.FreeTrial,
		Grace:        c.Grace,
	}
}

// CreateProductResult contains the product hash. Created is false when the
// product was already registered with the same terms.
type CreateProductResult struct {
	ProductHash sharedDomain.Hash
	Created     bool
}

// CreateProductHandler handles the CreateProductCommand.
type CreateProductHandler struct {
	productRepo domain.Repository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	clock       sharedDomain.Clock
	metrics     observability.Metrics
}

// NewCreateProductHandler creates a new CreateProductHandler.
func NewCreateProductHandler(
	productRepo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
) *CreateProductHandler {
	return &CreateProductHandler{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		uow:         uow,
		clock:       clock,
		metrics:     observability.NoopMetrics{},
	}
}

// WithMetrics sets the metrics sink.
func (h *CreateProductHandler) WithMetrics(m observability.Metrics) *CreateProductHandler {
	h.metrics = m
	return h
}

// Handle executes the CreateProductCommand. It joins the transaction in ctx
// when there is one.
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*CreateProductResult, error) {
	terms := cmd.Terms()
	if err := domain.ValidateTerms(terms); err != nil {
		return nil, err
	}

	result, err := sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*CreateProductResult, error) {
		hash := sharedDomain.ProductHash(terms)
		existing, err := h.productRepo.FindByHash(txCtx, hash)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if !existing.HasTerms(terms) {
				return nil, domain.ErrProductCollision
			}
			return &CreateProductResult{ProductHash: hash}, nil
		}

		product, err := domain.NewProduct(terms, h.clock.Now())
		if err != nil {
			return nil, err
		}
		if err := h.productRepo.Save(txCtx, product); err != nil {
			return nil, err
		}
		if err := sharedApplication.RecordEvents(txCtx, h.outboxRepo, cmd.Caller, product); err != nil {
			return nil, err
		}
		return &CreateProductResult{ProductHash: product.Hash(), Created: true}, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Created {
		sharedApplication.AfterCommit(ctx, func() { h.metrics.Counter(observability.MetricProductsCreated, 1) })
	}
	return result, nil
}

var _ sharedApplication.CommandHandler[CreateProductCommand, *CreateProductResult] = (*CreateProductHandler)(nil)
