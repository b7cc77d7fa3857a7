package domain

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// Repository defines the interface for product persistence.
type Repository interface {
	// Save inserts a product. Products are never updated.
	Save(ctx context.Context, product *Product) error

	// FindByHash returns the product with hash, or nil when none exists.
	FindByHash(ctx context.Context, hash sharedDomain.Hash) (*Product, error)

	// FindByMerchant returns a merchant's products, oldest first.
	FindByMerchant(ctx context.Context, merchant sharedDomain.Address) ([]*Product, error)
}
