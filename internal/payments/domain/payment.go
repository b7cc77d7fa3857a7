package domain

import (
	"fmt"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// ErrDuplicatePayment is returned when a charge cycle already has a receipt.
var ErrDuplicatePayment = fmt.Errorf("%w: charge already collected", sharedDomain.ErrInconsistentState)

// Payment is the receipt of one collected charge cycle. It is identified by
// the subscription and the due time of the cycle it settled.
type Payment struct {
	sharedDomain.BaseAggregateRoot
	subscriptionHash sharedDomain.Hash
	dueAt            sharedDomain.Timestamp
	initiator        sharedDomain.Address
	merchant         sharedDomain.Address
	token            sharedDomain.Address
	split            Split
	paidAt           sharedDomain.Timestamp
}

// PaymentID returns the content address of the receipt for a cycle.
func PaymentID(subscriptionHash sharedDomain.Hash, dueAt sharedDomain.Timestamp) sharedDomain.Hash {
	return sharedDomain.NewWordEncoder(2).
		Hash(subscriptionHash).
		Uint64(uint64(dueAt)).
		Sum()
}

// NewPayment records a collected charge and emits PaymentCollected.
func NewPayment(
	subscriptionHash sharedDomain.Hash,
	dueAt sharedDomain.Timestamp,
	initiator, merchant, token sharedDomain.Address,
	split Split,
	paidAt sharedDomain.Timestamp,
) *Payment {
	p := &Payment{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		subscriptionHash:  subscriptionHash,
		dueAt:             dueAt,
		initiator:         initiator,
		merchant:          merchant,
		token:             token,
		split:             split,
		paidAt:            paidAt,
	}
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentCollected(p))
	return p
}

// RehydratePayment rebuilds a receipt from storage.
func RehydratePayment(
	subscriptionHash sharedDomain.Hash,
	dueAt sharedDomain.Timestamp,
	initiator, merchant, token sharedDomain.Address,
	split Split,
	paidAt sharedDomain.Timestamp,
) *Payment {
	return &Payment{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(1),
		subscriptionHash:  subscriptionHash,
		dueAt:             dueAt,
		initiator:         initiator,
		merchant:          merchant,
		token:             token,
		split:             split,
		paidAt:            paidAt,
	}
}

func (p *Payment) Key() sharedDomain.Hash { return PaymentID(p.subscriptionHash, p.dueAt) }

func (p *Payment) SubscriptionHash() sharedDomain.Hash { return p.subscriptionHash }
func (p *Payment) DueAt() sharedDomain.Timestamp       { return p.dueAt }
func (p *Payment) Initiator() sharedDomain.Address     { return p.initiator }
func (p *Payment) Merchant() sharedDomain.Address      { return p.merchant }
func (p *Payment) Token() sharedDomain.Address         { return p.token }
func (p *Payment) Split() Split                        { return p.split }
func (p *Payment) PaidAt() sharedDomain.Timestamp      { return p.paidAt }
