package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
	"github.com/felixgeelhaar/beaver/pkg/observability"
)

// TerminateSubscriptionCommand ends a subscription.
type TerminateSubscriptionCommand struct {
	Caller           sharedDomain.Address
	SubscriptionHash sharedDomain.Hash
}

// CommandName implements application.Command.
func (TerminateSubscriptionCommand) CommandName() string { return "subscriptions.terminate" }

// TerminateSubscriptionResult reports whether this call ended the subscription.
// It is false when the subscription was already terminated.
type TerminateSubscriptionResult struct {
	Terminated bool
}

// TerminateSubscriptionHandler handles the TerminateSubscriptionCommand.
type TerminateSubscriptionHandler struct {
	subscriptionRepo domain.Repository
	outboxRepo       outbox.Repository
	uow              sharedApplication.UnitOfWork
	clock            sharedDomain.Clock
	metrics          observability.Metrics
}

// NewTerminateSubscriptionHandler creates a new TerminateSubscriptionHandler.
func NewTerminateSubscriptionHandler(
	subscriptionRepo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
) *TerminateSubscriptionHandler {
	return &TerminateSubscriptionHandler{
		subscriptionRepo: subscriptionRepo,
		outboxRepo:       outboxRepo,
		uow:              uow,
		clock:            clock,
		metrics:          observability.NoopMetrics{},
	}
}

// WithMetrics sets the metrics sink.
func (h *TerminateSubscriptionHandler) WithMetrics(m observability.Metrics) *TerminateSubscriptionHandler {
	h.metrics = m
	return h
}

// Handle executes the TerminateSubscriptionCommand.
func (h *TerminateSubscriptionHandler) Handle(ctx context.Context, cmd TerminateSubscriptionCommand) (*TerminateSubscriptionResult, error) {
	result, err := sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*TerminateSubscriptionResult, error) {
		s, err := h.subscriptionRepo.FindByHash(txCtx, cmd.SubscriptionHash)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, domain.ErrSubscriptionNotFound
		}

		changed, err := s.Terminate(cmd.Caller, h.clock.Timestamp())
		if err != nil {
			return nil, err
		}
		if !changed {
			return &TerminateSubscriptionResult{}, nil
		}
		if err := h.subscriptionRepo.Save(txCtx, s); err != nil {
			return nil, err
		}
		if err := sharedApplication.RecordEvents(txCtx, h.outboxRepo, cmd.Caller, s); err != nil {
			return nil, err
		}
		return &TerminateSubscriptionResult{Terminated: true}, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Terminated {
		sharedApplication.AfterCommit(ctx, func() { h.metrics.Counter(observability.MetricSubscriptionsEnded, 1) })
	}
	return result, nil
}

var _ sharedApplication.CommandHandler[TerminateSubscriptionCommand, *TerminateSubscriptionResult] = (*TerminateSubscriptionHandler)(nil)
