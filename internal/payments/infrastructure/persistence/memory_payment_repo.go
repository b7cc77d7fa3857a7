package persistence

import (
	"context"
	"sort"

	"github.com/felixgeelhaar/beaver/internal/payments/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
)

const paymentsTable = "payments"

// MemoryPaymentRepository implements domain.Repository on a memstore.Store.
type MemoryPaymentRepository struct {
	store *memstore.Store
}

// NewMemoryPaymentRepository creates a payment repository backed by store.
func NewMemoryPaymentRepository(store *memstore.Store) *MemoryPaymentRepository {
	return &MemoryPaymentRepository{store: store}
}

type storedPayment struct {
	subscriptionHash sharedDomain.Hash
	dueAt            sharedDomain.Timestamp
	initiator        sharedDomain.Address
	merchant         sharedDomain.Address
	token            sharedDomain.Address
	split            domain.Split
	paidAt           sharedDomain.Timestamp
}

// Save inserts a receipt.
func (r *MemoryPaymentRepository) Save(ctx context.Context, p *domain.Payment) error {
	return r.store.Do(ctx, func(tx *memstore.Tx) error {
		key := p.Key().String()
		if _, ok := tx.Get(paymentsTable, key); ok {
			return domain.ErrDuplicatePayment
		}
		return tx.Put(paymentsTable, key, storedPayment{
			subscriptionHash: p.SubscriptionHash(),
			dueAt:            p.DueAt(),
			initiator:        p.Initiator(),
			merchant:         p.Merchant(),
			token:            p.Token(),
			split:            p.Split(),
			paidAt:           p.PaidAt(),
		})
	})
}

// FindBySubscription returns the receipts of a subscription, oldest cycle first.
func (r *MemoryPaymentRepository) FindBySubscription(ctx context.Context, subscriptionHash sharedDomain.Hash) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := r.store.Do(ctx, func(tx *memstore.Tx) error {
		tx.Scan(paymentsTable, func(_ string, v any) bool {
			sp := v.(storedPayment)
			if sp.subscriptionHash == subscriptionHash {
				payments = append(payments, domain.RehydratePayment(
					sp.subscriptionHash, sp.dueAt, sp.initiator, sp.merchant, sp.token, sp.split, sp.paidAt,
				))
			}
			return true
		})
		return nil
	})
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].DueAt() < payments[j].DueAt() })
	return payments, err
}

var _ domain.Repository = (*MemoryPaymentRepository)(nil)
