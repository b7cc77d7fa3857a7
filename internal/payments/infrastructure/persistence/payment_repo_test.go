package persistence

import (
	"context"
	"testing"
	"time"

	catalogDomain "github.com/felixgeelhaar/beaver/internal/catalog/domain"
	catalogPersistence "github.com/felixgeelhaar/beaver/internal/catalog/infrastructure/persistence"
	"github.com/felixgeelhaar/beaver/internal/payments/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/migrations"
	subscriptionsDomain "github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
	subscriptionsPersistence "github.com/felixgeelhaar/beaver/internal/subscriptions/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	merchant  = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000b2")
	token     = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000c0")
	initiator = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000e1")
)

// setupPaymentTestDB opens an in-memory SQLite database holding one product
// and one subscription for the receipts to reference.
func setupPaymentTestDB(t *testing.T, sub *subscriptionsDomain.Subscription, product *catalogDomain.Product) database.Connection {
	t.Helper()

	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: database.InMemorySQLitePath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Run(ctx, conn))
	require.NoError(t, catalogPersistence.NewSQLProductRepository(conn).Save(ctx, product))
	require.NoError(t, subscriptionsPersistence.NewSQLSubscriptionRepository(conn).Save(ctx, sub))
	return conn
}

func fixtures(t *testing.T) (*catalogDomain.Product, *subscriptionsDomain.Subscription) {
	t.Helper()
	product, err := catalogDomain.NewProduct(sharedDomain.ProductTerms{
		Merchant: merchant,
		Token:    token,
		Amount:   sharedDomain.NewAmount(1_000_000),
		Period:   3600,
	}, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	sub, err := subscriptionsDomain.NewSubscription(product.Hash(),
		sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000a1"),
		initiator, sharedDomain.ZeroHash, 1800, 1800, 0)
	require.NoError(t, err)
	return product, sub
}

func receipt(t *testing.T, sub sharedDomain.Hash, dueAt sharedDomain.Timestamp) *domain.Payment {
	t.Helper()
	split, err := domain.SplitCharge(sharedDomain.NewAmount(1_000_000), sharedDomain.NewAmount(1000),
		sharedDomain.MustParseAmount("10000000000000000"))
	require.NoError(t, err)
	return domain.NewPayment(sub, dueAt, initiator, merchant, token, split, dueAt+5)
}

func TestPaymentRepositories(t *testing.T) {
	product, sub := fixtures(t)
	repos := map[string]domain.Repository{
		"memory": NewMemoryPaymentRepository(memstore.New()),
		"sqlite": NewSQLPaymentRepository(setupPaymentTestDB(t, sub, product)),
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Save(ctx, receipt(t, sub.Hash(), 5400)))
			require.NoError(t, repo.Save(ctx, receipt(t, sub.Hash(), 1800)))

			err := repo.Save(ctx, receipt(t, sub.Hash(), 1800))
			assert.ErrorIs(t, err, domain.ErrDuplicatePayment)
			assert.ErrorIs(t, err, sharedDomain.ErrInconsistentState)

			payments, err := repo.FindBySubscription(ctx, sub.Hash())
			require.NoError(t, err)
			require.Len(t, payments, 2)
			assert.Equal(t, sharedDomain.Timestamp(1800), payments[0].DueAt())
			assert.Equal(t, sharedDomain.Timestamp(5400), payments[1].DueAt())

			p := payments[0]
			assert.Equal(t, initiator, p.Initiator())
			assert.Equal(t, merchant, p.Merchant())
			assert.Equal(t, token, p.Token())
			assert.Equal(t, sharedDomain.Timestamp(1805), p.PaidAt())
			assert.Equal(t, "989000", p.Split().MerchantAmount.String())
			assert.Equal(t, "1000", p.Split().Compensation.String())
			assert.Equal(t, "10000", p.Split().ProtocolFee.String())
			assert.Empty(t, p.DomainEvents())

			none, err := repo.FindBySubscription(ctx, sharedDomain.Keccak256([]byte("other")))
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}
