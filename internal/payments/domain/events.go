package domain

import (
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

const aggregateType = "Payment"

// PaymentCollected is emitted when a charge cycle is settled.
type PaymentCollected struct {
	sharedDomain.BaseEvent
	SubscriptionHash sharedDomain.Hash      `json:"subscription_hash"`
	DueAt            sharedDomain.Timestamp `json:"due_at"`
	Initiator        sharedDomain.Address   `json:"initiator"`
	Merchant         sharedDomain.Address   `json:"merchant"`
	Token            sharedDomain.Address   `json:"token"`
	Split
	PaidAt sharedDomain.Timestamp `json:"paid_at"`
}

// NewPaymentCollected creates a PaymentCollected event.
func NewPaymentCollected(p *Payment) *PaymentCollected {
	return &PaymentCollected{
		BaseEvent:        sharedDomain.NewBaseEvent(p.Key(), aggregateType, "payments.payment.collected"),
		SubscriptionHash: p.SubscriptionHash(),
		DueAt:            p.DueAt(),
		Initiator:        p.Initiator(),
		Merchant:         p.Merchant(),
		Token:            p.Token(),
		Split:            p.Split(),
		PaidAt:           p.PaidAt(),
	}
}
