package domain

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// Repository stores payment receipts.
type Repository interface {
	// Save inserts a receipt. A second receipt for the same cycle fails with
	// ErrDuplicatePayment.
	Save(ctx context.Context, p *Payment) error
	// FindBySubscription returns the receipts of a subscription, oldest cycle first.
	FindBySubscription(ctx context.Context, subscriptionHash sharedDomain.Hash) ([]*Payment, error)
}
