package commands

import (
	"context"

	catalogDomain "github.com/felixgeelhaar/beaver/internal/catalog/domain"
	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
	"github.com/felixgeelhaar/beaver/pkg/observability"
)

// StartSubscriptionCommand opens a subscription for Caller. A zero Initiator
// selects the router's default initiator.
type StartSubscriptionCommand struct {
	Caller       sharedDomain.Address
	ProductHash  sharedDomain.Hash
	Initiator    sharedDomain.Address
	MetadataHash sharedDomain.Hash
}

// CommandName implements application.Command.
func (StartSubscriptionCommand) CommandName() string { return "subscriptions.start" }

// StartSubscriptionResult identifies the subscription. Created is false when
// the same subscription was already active.
type StartSubscriptionResult struct {
	SubscriptionHash sharedDomain.Hash
	NextChargeAt     sharedDomain.Timestamp
	Created          bool
}

// StartSubscriptionHandler handles the StartSubscriptionCommand.
type StartSubscriptionHandler struct {
	subscriptionRepo domain.Repository
	productRepo      catalogDomain.Repository
	outboxRepo       outbox.Repository
	uow              sharedApplication.UnitOfWork
	clock            sharedDomain.Clock
	defaultInitiator sharedDomain.Address
	metrics          observability.Metrics
}

// NewStartSubscriptionHandler creates a new StartSubscriptionHandler.
func NewStartSubscriptionHandler(
	subscriptionRepo domain.Repository,
	productRepo catalogDomain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	defaultInitiator sharedDomain.Address,
) *StartSubscriptionHandler {
	return &StartSubscriptionHandler{
		subscriptionRepo: subscriptionRepo,
		productRepo:      productRepo,
		outboxRepo:       outboxRepo,
		uow:              uow,
		clock:            clock,
		defaultInitiator: defaultInitiator,
		metrics:          observability.NoopMetrics{},
	}
}

// WithMetrics sets the metrics sink.
func (h *StartSubscriptionHandler) WithMetrics(m observability.Metrics) *StartSubscriptionHandler {
	h.metrics = m
	return h
}

// Handle executes the StartSubscriptionCommand. It joins the transaction in
// ctx when there is one.
func (h *StartSubscriptionHandler) Handle(ctx context.Context, cmd StartSubscriptionCommand) (*StartSubscriptionResult, error) {
	initiator := cmd.Initiator
	if initiator.IsZero() {
		initiator = h.defaultInitiator
	}

	result, err := sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*StartSubscriptionResult, error) {
		product, err := h.productRepo.FindByHash(txCtx, cmd.ProductHash)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, catalogDomain.ErrProductNotFound
		}

		hash := sharedDomain.SubscriptionHash(cmd.ProductHash, cmd.Caller, cmd.MetadataHash)
		existing, err := h.subscriptionRepo.FindByHash(txCtx, hash)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if !existing.IsActive() {
				return nil, domain.ErrTerminated
			}
			return &StartSubscriptionResult{SubscriptionHash: hash, NextChargeAt: existing.NextChargeAt()}, nil
		}

		subscription, err := domain.NewSubscription(
			cmd.ProductHash, cmd.Caller, initiator, cmd.MetadataHash,
			product.FreeTrial(), product.Grace(), h.clock.Timestamp(),
		)
		if err != nil {
			return nil, err
		}
		if err := h.subscriptionRepo.Save(txCtx, subscription); err != nil {
			return nil, err
		}
		if err := sharedApplication.RecordEvents(txCtx, h.outboxRepo, cmd.Caller, subscription); err != nil {
			return nil, err
		}
		return &StartSubscriptionResult{
			SubscriptionHash: subscription.Hash(),
			NextChargeAt:     subscription.NextChargeAt(),
			Created:          true,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Created {
		sharedApplication.AfterCommit(ctx, func() { h.metrics.Counter(observability.MetricSubscriptionsStarted, 1) })
	}
	return result, nil
}

var _ sharedApplication.CommandHandler[StartSubscriptionCommand, *StartSubscriptionResult] = (*StartSubscriptionHandler)(nil)
