package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/beaver/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCatalogTestDB opens an in-memory SQLite database with the schema applied.
func setupCatalogTestDB(t *testing.T) database.Connection {
	t.Helper()

	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: database.InMemorySQLitePath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Run(ctx, conn))
	return conn
}

func repositories(t *testing.T) map[string]domain.Repository {
	return map[string]domain.Repository{
		"memory": NewMemoryProductRepository(memstore.New()),
		"sqlite": NewSQLProductRepository(setupCatalogTestDB(t)),
	}
}

var merchant = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000b2")

func newTestProduct(t *testing.T, amount uint64, createdAt int64) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(sharedDomain.ProductTerms{
		Merchant:     merchant,
		MetadataHash: sharedDomain.Keccak256([]byte("plan")),
		Token:        sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000c0"),
		Amount:       sharedDomain.NewAmount(amount),
		Period:       3600,
		FreeTrial:    1800,
		Grace:        1800,
	}, time.Unix(createdAt, 0).UTC())
	require.NoError(t, err)
	return p
}

func TestProductRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			product := newTestProduct(t, 1_000_000, 100)
			require.NoError(t, repo.Save(ctx, product))

			found, err := repo.FindByHash(ctx, product.Hash())
			require.NoError(t, err)
			require.NotNil(t, found)

			assert.Equal(t, product.Hash(), found.Hash())
			assert.True(t, found.HasTerms(product.Terms()))
			assert.Equal(t, product.CreatedAt(), found.CreatedAt())
			assert.Empty(t, found.DomainEvents())
		})
	}
}

func TestProductRepository_FindByHashMissing(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			found, err := repo.FindByHash(ctx, sharedDomain.Keccak256([]byte("nothing")))
			require.NoError(t, err)
			assert.Nil(t, found)
		})
	}
}

func TestProductRepository_FindByMerchant(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			later := newTestProduct(t, 2, 200)
			earlier := newTestProduct(t, 1, 100)
			require.NoError(t, repo.Save(ctx, later))
			require.NoError(t, repo.Save(ctx, earlier))

			products, err := repo.FindByMerchant(ctx, merchant)
			require.NoError(t, err)
			require.Len(t, products, 2)
			assert.Equal(t, earlier.Hash(), products[0].Hash())
			assert.Equal(t, later.Hash(), products[1].Hash())

			none, err := repo.FindByMerchant(ctx, sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000ff"))
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestSQLProductRepository_LargeAmountRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLProductRepository(setupCatalogTestDB(t))

	terms := newTestProduct(t, 1, 0).Terms()
	terms.Amount = sharedDomain.MustParseAmount("340282366920938463463374607431768211456")
	product, err := domain.NewProduct(terms, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, product))

	found, err := repo.FindByHash(ctx, product.Hash())
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211456", found.Amount().String())
}
