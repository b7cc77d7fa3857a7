package persistence

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
)

const productsTable = "products"

// MemoryProductRepository implements domain.Repository on a memstore.Store.
type MemoryProductRepository struct {
	store *memstore.Store
}

// NewMemoryProductRepository creates a product repository backed by store.
func NewMemoryProductRepository(store *memstore.Store) *MemoryProductRepository {
	return &MemoryProductRepository{store: store}
}

type storedProduct struct {
	terms     sharedDomain.ProductTerms
	createdAt int64
}

// Save inserts a product.
func (r *MemoryProductRepository) Save(ctx context.Context, product *domain.Product) error {
	return r.store.Do(ctx, func(tx *memstore.Tx) error {
		return tx.Put(productsTable, product.Hash().String(), storedProduct{
			terms:     product.Terms(),
			createdAt: product.CreatedAt().Unix(),
		})
	})
}

// FindByHash returns the product with hash, or nil.
func (r *MemoryProductRepository) FindByHash(ctx context.Context, hash sharedDomain.Hash) (*domain.Product, error) {
	var product *domain.Product
	err := r.store.Do(ctx, func(tx *memstore.Tx) error {
		if v, ok := tx.Get(productsTable, hash.String()); ok {
			product = v.(storedProduct).toDomain()
		}
		return nil
	})
	return product, err
}

// FindByMerchant returns a merchant's products ordered by creation time.
func (r *MemoryProductRepository) FindByMerchant(ctx context.Context, merchant sharedDomain.Address) ([]*domain.Product, error) {
	var products []*domain.Product
	err := r.store.Do(ctx, func(tx *memstore.Tx) error {
		tx.Scan(productsTable, func(_ string, v any) bool {
			sp := v.(storedProduct)
			if sp.terms.Merchant == merchant {
				products = append(products, sp.toDomain())
			}
			return true
		})
		return nil
	})
	sortByCreation(products)
	return products, err
}

func (sp storedProduct) toDomain() *domain.Product {
	return domain.RehydrateProduct(sp.terms, unixTime(sp.createdAt))
}

var _ domain.Repository = (*MemoryProductRepository)(nil)
