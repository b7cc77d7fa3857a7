package queries

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/payments/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// PaymentDTO is the read model of a payment receipt.
type PaymentDTO struct {
	SubscriptionHash sharedDomain.Hash      `json:"subscription_hash"`
	DueAt            sharedDomain.Timestamp `json:"due_at"`
	Initiator        sharedDomain.Address   `json:"initiator"`
	Merchant         sharedDomain.Address   `json:"merchant"`
	Token            sharedDomain.Address   `json:"token"`
	domain.Split
	PaidAt sharedDomain.Timestamp `json:"paid_at"`
}

// ListPaymentsQuery lists the receipts of a subscription.
type ListPaymentsQuery struct {
	SubscriptionHash sharedDomain.Hash
}

// QueryName implements application.Query.
func (ListPaymentsQuery) QueryName() string { return "payments.list" }

// ListPaymentsHandler handles the ListPaymentsQuery.
type ListPaymentsHandler struct {
	paymentRepo domain.Repository
}

// NewListPaymentsHandler creates a new ListPaymentsHandler.
func NewListPaymentsHandler(paymentRepo domain.Repository) *ListPaymentsHandler {
	return &ListPaymentsHandler{paymentRepo: paymentRepo}
}

// Handle executes the ListPaymentsQuery.
func (h *ListPaymentsHandler) Handle(ctx context.Context, q ListPaymentsQuery) ([]PaymentDTO, error) {
	payments, err := h.paymentRepo.FindBySubscription(ctx, q.SubscriptionHash)
	if err != nil {
		return nil, err
	}
	dtos := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, PaymentDTO{
			SubscriptionHash: p.SubscriptionHash(),
			DueAt:            p.DueAt(),
			Initiator:        p.Initiator(),
			Merchant:         p.Merchant(),
			Token:            p.Token(),
			Split:            p.Split(),
			PaidAt:           p.PaidAt(),
		})
	}
	return dtos, nil
}
