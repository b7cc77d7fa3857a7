package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/beaver/internal/catalog/domain"
	"github.com/felixgeelhaar/beaver/internal/catalog/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/beaver/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockProductRepo is a mock implementation of domain.Repository.
type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Save(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) FindByHash(ctx context.Context, hash sharedDomain.Hash) (*domain.Product, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) FindByMerchant(ctx context.Context, merchant sharedDomain.Address) ([]*domain.Product, error) {
	args := m.Called(ctx, merchant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var (
	merchant = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000b2")
	token    = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000c0")
	t0       = time.Unix(0, 0).UTC()
)

func validCommand() CreateProductCommand {
	return CreateProductCommand{
		Caller:       merchant,
		Merchant:     merchant,
		MetadataHash: sharedDomain.Keccak256([]byte("gold")),
		Token:        token,
		Amount:       sharedDomain.NewAmount(1_000_000),
		Period:       3600,
		FreeTrial:    1800,
		Grace:        1800,
	}
}

func TestCreateProductHandler_Handle(t *testing.T) {
	t.Run("registers a new product and records the event", func(t *testing.T) {
		store := memstore.New()
		repo := persistence.NewMemoryProductRepository(store)
		outboxRepo := outbox.NewMemoryRepository(store)
		metrics := observability.NewInMemoryMetrics()
		handler := NewCreateProductHandler(repo, outboxRepo, memstore.NewUnitOfWork(store), sharedDomain.FixedClock(t0)).
			WithMetrics(metrics)

		result, err := handler.Handle(context.Background(), validCommand())
		require.NoError(t, err)
		assert.True(t, result.Created)
		assert.Equal(t, sharedDomain.ProductHash(validCommand().Terms()), result.ProductHash)

		stored, err := repo.FindByHash(context.Background(), result.ProductHash)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, t0, stored.CreatedAt())

		msgs, err := outboxRepo.All(context.Background())
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "catalog.product.created", msgs[0].RoutingKey)
		assert.Equal(t, result.ProductHash.String(), msgs[0].AggregateID)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricProductsCreated))
	})

	t.Run("is idempotent for identical terms", func(t *testing.T) {
		store := memstore.New()
		repo := persistence.NewMemoryProductRepository(store)
		outboxRepo := outbox.NewMemoryRepository(store)
		handler := NewCreateProductHandler(repo, outboxRepo, memstore.NewUnitOfWork(store), sharedDomain.FixedClock(t0))

		first, err := handler.Handle(context.Background(), validCommand())
		require.NoError(t, err)
		second, err := handler.Handle(context.Background(), validCommand())
		require.NoError(t, err)

		assert.Equal(t, first.ProductHash, second.ProductHash)
		assert.False(t, second.Created)

		products, err := repo.FindByMerchant(context.Background(), merchant)
		require.NoError(t, err)
		assert.Len(t, products, 1)
		msgs, err := outboxRepo.All(context.Background())
		require.NoError(t, err)
		assert.Len(t, msgs, 1)
	})

	t.Run("detects a content address collision", func(t *testing.T) {
		repo := new(mockProductRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateProductHandler(repo, outbox.NewMemoryRepository(memstore.New()), uow, sharedDomain.FixedClock(t0))

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		other := validCommand()
		other.Amount = sharedDomain.NewAmount(7)
		impostor := domain.RehydrateProduct(other.Terms(), t0)
		repo.On("FindByHash", txCtx, sharedDomain.ProductHash(validCommand().Terms())).Return(impostor, nil)

		_, err := handler.Handle(ctx, validCommand())
		assert.ErrorIs(t, err, domain.ErrProductCollision)
		assert.ErrorIs(t, err, sharedDomain.ErrInconsistentState)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		uow.AssertExpectations(t)
	})

	t.Run("rejects invalid terms without a transaction", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		handler := NewCreateProductHandler(new(mockProductRepo), nil, uow, sharedDomain.FixedClock(t0))

		cmd := validCommand()
		cmd.Period = 0
		_, err := handler.Handle(context.Background(), cmd)
		assert.ErrorIs(t, err, sharedDomain.ErrInvalidParameters)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("rolls back when saving fails", func(t *testing.T) {
		repo := new(mockProductRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateProductHandler(repo, outbox.NewMemoryRepository(memstore.New()), uow, sharedDomain.FixedClock(t0))

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		repo.On("FindByHash", txCtx, mock.Anything).Return(nil, nil)
		repo.On("Save", txCtx, mock.AnythingOfType("*domain.Product")).Return(errors.New("disk full"))

		_, err := handler.Handle(ctx, validCommand())
		assert.EqualError(t, err, "disk full")
		uow.AssertExpectations(t)
	})
}
