package persistence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/beaver/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
)

// SQLProductRepository implements domain.Repository for SQLite and PostgreSQL.
type SQLProductRepository struct {
	conn database.Connection
}

// NewSQLProductRepository creates a new SQL product repository.
func NewSQLProductRepository(conn database.Connection) *SQLProductRepository {
	return &SQLProductRepository{conn: conn}
}

func (r *SQLProductRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

const productColumns = `merchant, metadata_hash, token, amount, period, free_trial, grace, created_at`

// Save inserts a product.
func (r *SQLProductRepository) Save(ctx context.Context, product *domain.Product) error {
	terms := product.Terms()
	period, err := convert.Uint64ToInt64(terms.Period)
	if err != nil {
		return fmt.Errorf("%w: period: %v", sharedDomain.ErrInvalidParameters, err)
	}
	freeTrial, err := convert.Uint64ToInt64(terms.FreeTrial)
	if err != nil {
		return fmt.Errorf("%w: free trial: %v", sharedDomain.ErrInvalidParameters, err)
	}
	grace, err := convert.Uint64ToInt64(terms.Grace)
	if err != nil {
		return fmt.Errorf("%w: grace: %v", sharedDomain.ErrInvalidParameters, err)
	}
	_, err = database.ExecutorFromContext(ctx, r.conn).Exec(ctx, r.q(`
		INSERT INTO products (product_hash, `+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		product.Hash().String(),
		terms.Merchant.String(),
		terms.MetadataHash.String(),
		terms.Token.String(),
		terms.Amount.String(),
		period,
		freeTrial,
		grace,
		product.CreatedAt().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// FindByHash returns the product with hash, or nil.
func (r *SQLProductRepository) FindByHash(ctx context.Context, hash sharedDomain.Hash) (*domain.Product, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		r.q(`SELECT `+productColumns+` FROM products WHERE product_hash = ?`), hash.String())
	product, err := scanProduct(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	return product, err
}

// FindByMerchant returns a merchant's products ordered by creation time.
func (r *SQLProductRepository) FindByMerchant(ctx context.Context, merchant sharedDomain.Address) ([]*domain.Product, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		r.q(`SELECT `+productColumns+` FROM products WHERE merchant = ? ORDER BY created_at, product_hash`),
		merchant.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanProduct(row database.Row) (*domain.Product, error) {
	var (
		merchant, metadataHash, token, amount string
		period, freeTrial, grace, createdAt   int64
	)
	if err := row.Scan(&merchant, &metadataHash, &token, &amount, &period, &freeTrial, &grace, &createdAt); err != nil {
		return nil, err
	}

	var (
		terms sharedDomain.ProductTerms
		err   error
	)
	if terms.Merchant, err = sharedDomain.ParseAddress(merchant); err != nil {
		return nil, err
	}
	if terms.MetadataHash, err = sharedDomain.ParseHash(metadataHash); err != nil {
		return nil, err
	}
	if terms.Token, err = sharedDomain.ParseAddress(token); err != nil {
		return nil, err
	}
	if terms.Amount, err = sharedDomain.ParseAmount(amount); err != nil {
		return nil, err
	}
	if terms.Period, err = convert.Int64ToUint64(period); err != nil {
		return nil, err
	}
	if terms.FreeTrial, err = convert.Int64ToUint64(freeTrial); err != nil {
		return nil, err
	}
	if terms.Grace, err = convert.Int64ToUint64(grace); err != nil {
		return nil, err
	}
	return domain.RehydrateProduct(terms, unixTime(createdAt)), nil
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func sortByCreation(products []*domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt().Before(products[j].CreatedAt())
	})
}

var _ domain.Repository = (*SQLProductRepository)(nil)
