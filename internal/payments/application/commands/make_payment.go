package commands

import (
	"context"
	"errors"
	"fmt"

	catalogDomain "github.com/felixgeelhaar/beaver/internal/catalog/domain"
	"github.com/felixgeelhaar/beaver/internal/payments/domain"
	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	subscriptionsDomain "github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
	"github.com/felixgeelhaar/beaver/pkg/observability"
)

// Transfers moves tokens between accounts and the router custody.
type Transfers interface {
	Custody() sharedDomain.Address
	Pull(ctx context.Context, token, from, to sharedDomain.Address, amount sharedDomain.Amount) error
	Push(ctx context.Context, token, to sharedDomain.Address, amount sharedDomain.Amount) error
}

// FeeConfig is the protocol fee applied to every charge.
type FeeConfig struct {
	// Rate is a fixed-point fraction scaled by domain.FeeScale.
	Rate     sharedDomain.Amount
	Treasury sharedDomain.Address
}

// MakePaymentCommand collects the charge that is currently due on a
// subscription. Caller must be the subscription's initiator and receives
// Compensation out of the charge.
type MakePaymentCommand struct {
	Caller           sharedDomain.Address
	SubscriptionHash sharedDomain.Hash
	Compensation     sharedDomain.Amount
}

// CommandName implements application.Command.
func (MakePaymentCommand) CommandName() string { return "payments.make_payment" }

// MakePaymentResult describes the settled cycle.
type MakePaymentResult struct {
	SubscriptionHash sharedDomain.Hash
	DueAt            sharedDomain.Timestamp
	NextChargeAt     sharedDomain.Timestamp
	Split            domain.Split
}

// MakePaymentHandler handles the MakePaymentCommand.
type MakePaymentHandler struct {
	subscriptionRepo subscriptionsDomain.Repository
	productRepo      catalogDomain.Repository
	paymentRepo      domain.Repository
	outboxRepo       outbox.Repository
	transfers        Transfers
	uow              sharedApplication.UnitOfWork
	clock            sharedDomain.Clock
	fees             FeeConfig
	metrics          observability.Metrics
}

// NewMakePaymentHandler creates a new MakePaymentHandler.
func NewMakePaymentHandler(
	subscriptionRepo subscriptionsDomain.Repository,
	productRepo catalogDomain.Repository,
	paymentRepo domain.Repository,
	outboxRepo outbox.Repository,
	transfers Transfers,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	fees FeeConfig,
) *MakePaymentHandler {
	return &MakePaymentHandler{
		subscriptionRepo: subscriptionRepo,
		productRepo:      productRepo,
		paymentRepo:      paymentRepo,
		outboxRepo:       outboxRepo,
		transfers:        transfers,
		uow:              uow,
		clock:            clock,
		fees:             fees,
		metrics:          observability.NoopMetrics{},
	}
}

// WithMetrics sets the metrics sink.
func (h *MakePaymentHandler) WithMetrics(m observability.Metrics) *MakePaymentHandler {
	h.metrics = m
	return h
}

// Handle executes the MakePaymentCommand. The pull, the three pushes, the
// cursor advance and the receipt commit together or not at all.
func (h *MakePaymentHandler) Handle(ctx context.Context, cmd MakePaymentCommand) (*MakePaymentResult, error) {
	result, err := sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*MakePaymentResult, error) {
		sub, err := h.subscriptionRepo.FindByHash(txCtx, cmd.SubscriptionHash)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			return nil, subscriptionsDomain.ErrSubscriptionNotFound
		}
		product, err := h.productRepo.FindByHash(txCtx, sub.ProductHash())
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: product %s of subscription %s is missing",
				sharedDomain.ErrInconsistentState, sub.ProductHash(), sub.Hash())
		}

		now := h.clock.Timestamp()
		if err := sub.CheckPayable(cmd.Caller, now); err != nil {
			return nil, err
		}
		split, err := domain.SplitCharge(product.Amount(), cmd.Compensation, h.fees.Rate)
		if err != nil {
			return nil, err
		}

		token := product.Token()
		custody := h.transfers.Custody()
		if err := h.transfers.Pull(txCtx, token, sub.Subscriber(), custody, split.Amount); err != nil {
			return nil, err
		}
		if err := h.transfers.Push(txCtx, token, product.Merchant(), split.MerchantAmount); err != nil {
			return nil, err
		}
		if err := h.transfers.Push(txCtx, token, cmd.Caller, split.Compensation); err != nil {
			return nil, err
		}
		if err := h.transfers.Push(txCtx, token, h.fees.Treasury, split.ProtocolFee); err != nil {
			return nil, err
		}

		dueAt := sub.NextChargeAt()
		if err := sub.AdvanceCharge(product.Period(), now); err != nil {
			return nil, err
		}
		if err := h.subscriptionRepo.Save(txCtx, sub); err != nil {
			return nil, err
		}

		payment := domain.NewPayment(sub.Hash(), dueAt, cmd.Caller, product.Merchant(), token, split, now)
		if err := h.paymentRepo.Save(txCtx, payment); err != nil {
			return nil, err
		}
		if err := sharedApplication.RecordEvents(txCtx, h.outboxRepo, cmd.Caller, sub, payment); err != nil {
			return nil, err
		}

		return &MakePaymentResult{
			SubscriptionHash: sub.Hash(),
			DueAt:            dueAt,
			NextChargeAt:     sub.NextChargeAt(),
			Split:            split,
		}, nil
	})
	if err != nil {
		h.metrics.Counter(observability.MetricPaymentsRejected, 1, observability.T("reason", RejectionReason(err)))
		return nil, err
	}
	sharedApplication.AfterCommit(ctx, func() { h.metrics.Counter(observability.MetricPaymentsCollected, 1) })
	return result, nil
}

// RejectionReason classifies a MakePayment failure for metrics and logs.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, sharedDomain.ErrNotFound):
		return "not_found"
	case errors.Is(err, sharedDomain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, sharedDomain.ErrAlreadyTerminated):
		return "terminated"
	case errors.Is(err, sharedDomain.ErrNotDue):
		return "not_due"
	case errors.Is(err, sharedDomain.ErrExpired):
		return "expired"
	case errors.Is(err, sharedDomain.ErrInvalidCompensation):
		return "invalid_compensation"
	case errors.Is(err, sharedDomain.ErrTransferFailed):
		return "transfer_failed"
	default:
		return "error"
	}
}

var _ sharedApplication.CommandHandler[MakePaymentCommand, *MakePaymentResult] = (*MakePaymentHandler)(nil)
