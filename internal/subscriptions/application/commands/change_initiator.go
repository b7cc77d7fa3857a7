package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
)

// ChangeInitiatorCommand hands billing of one subscription to NewInitiator.
type ChangeInitiatorCommand struct {
	Caller           sharedDomain.Address
	SubscriptionHash sharedDomain.Hash
	OldInitiator     sharedDomain.Address
	NewInitiator     sharedDomain.Address
}

// CommandName implements application.Command.
func (ChangeInitiatorCommand) CommandName() string { return "subscriptions.change_initiator" }

// ChangeInitiatorForAllCommand hands billing of every active subscription of
// Caller currently assigned to OldInitiator to NewInitiator.
type ChangeInitiatorForAllCommand struct {
	Caller       sharedDomain.Address
	OldInitiator sharedDomain.Address
	NewInitiator sharedDomain.Address
}

// CommandName implements application.Command.
func (ChangeInitiatorForAllCommand) CommandName() string {
	return "subscriptions.change_initiator_for_all"
}

// ChangeInitiatorResult lists the subscriptions that were reassigned.
type ChangeInitiatorResult struct {
	SubscriptionHashes []sharedDomain.Hash
}

// ChangeInitiatorHandler handles both initiator change commands.
type ChangeInitiatorHandler struct {
	subscriptionRepo domain.Repository
	outboxRepo       outbox.Repository
	uow              sharedApplication.UnitOfWork
	clock            sharedDomain.Clock
}

// NewChangeInitiatorHandler creates a new ChangeInitiatorHandler.
func NewChangeInitiatorHandler(
	subscriptionRepo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
) *ChangeInitiatorHandler {
	return &ChangeInitiatorHandler{
		subscriptionRepo: subscriptionRepo,
		outboxRepo:       outboxRepo,
		uow:              uow,
		clock:            clock,
	}
}

// Handle executes the ChangeInitiatorCommand.
func (h *ChangeInitiatorHandler) Handle(ctx context.Context, cmd ChangeInitiatorCommand) (*ChangeInitiatorResult, error) {
	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*ChangeInitiatorResult, error) {
		s, err := h.subscriptionRepo.FindByHash(txCtx, cmd.SubscriptionHash)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, domain.ErrSubscriptionNotFound
		}
		if err := h.reassign(txCtx, s, cmd.Caller, cmd.OldInitiator, cmd.NewInitiator); err != nil {
			return nil, err
		}
		return &ChangeInitiatorResult{SubscriptionHashes: []sharedDomain.Hash{s.Hash()}}, nil
	})
}

// HandleForAll executes the ChangeInitiatorForAllCommand. It fails with
// ErrInitiatorMismatch when no active subscription of Caller is assigned to
// OldInitiator.
func (h *ChangeInitiatorHandler) HandleForAll(ctx context.Context, cmd ChangeInitiatorForAllCommand) (*ChangeInitiatorResult, error) {
	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*ChangeInitiatorResult, error) {
		subs, err := h.subscriptionRepo.FindBySubscriber(txCtx, cmd.Caller)
		if err != nil {
			return nil, err
		}

		result := &ChangeInitiatorResult{}
		for _, listed := range subs {
			if !listed.IsActive() || listed.Initiator() != cmd.OldInitiator {
				continue
			}
			// Reload so PostgreSQL takes the row lock.
			s, err := h.subscriptionRepo.FindByHash(txCtx, listed.Hash())
			if err != nil {
				return nil, err
			}
			if err := h.reassign(txCtx, s, cmd.Caller, cmd.OldInitiator, cmd.NewInitiator); err != nil {
				return nil, err
			}
			result.SubscriptionHashes = append(result.SubscriptionHashes, s.Hash())
		}
		if len(result.SubscriptionHashes) == 0 {
			return nil, domain.ErrInitiatorMismatch
		}
		return result, nil
	})
}

func (h *ChangeInitiatorHandler) reassign(ctx context.Context, s *domain.Subscription, caller, oldInitiator, newInitiator sharedDomain.Address) error {
	if err := s.ChangeInitiator(caller, oldInitiator, newInitiator, h.clock.Timestamp()); err != nil {
		return err
	}
	if len(s.DomainEvents()) == 0 {
		return nil
	}
	if err := h.subscriptionRepo.Save(ctx, s); err != nil {
		return err
	}
	return sharedApplication.RecordEvents(ctx, h.outboxRepo, caller, s)
}

var _ sharedApplication.CommandHandler[ChangeInitiatorCommand, *ChangeInitiatorResult] = (*ChangeInitiatorHandler)(nil)

// ForAll adapts HandleForAll to the CommandHandler interface.
func (h *ChangeInitiatorHandler) ForAll() sharedApplication.CommandHandler[ChangeInitiatorForAllCommand, *ChangeInitiatorResult] {
	return forAllHandler{h}
}

type forAllHandler struct{ h *ChangeInitiatorHandler }

func (f forAllHandler) Handle(ctx context.Context, cmd ChangeInitiatorForAllCommand) (*ChangeInitiatorResult, error) {
	return f.h.HandleForAll(ctx, cmd)
}
