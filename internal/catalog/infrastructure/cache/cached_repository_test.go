package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/beaver/internal/catalog/domain"
	"github.com/felixgeelhaar/beaver/internal/catalog/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	domain.Repository
	finds int
}

func (r *countingRepo) FindByHash(ctx context.Context, hash sharedDomain.Hash) (*domain.Product, error) {
	r.finds++
	return r.Repository.FindByHash(ctx, hash)
}

type mapRemote struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMapRemote() *mapRemote { return &mapRemote{data: make(map[string][]byte)} }

func (m *mapRemote) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.data[key], nil
}

func (m *mapRemote) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func seededRepo(t *testing.T) (*countingRepo, *memstore.Store, *domain.Product) {
	t.Helper()
	store := memstore.New()
	repo := &countingRepo{Repository: persistence.NewMemoryProductRepository(store)}
	product, err := domain.NewProduct(sharedDomain.ProductTerms{
		Merchant: sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000b2"),
		Token:    sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000c0"),
		Amount:   sharedDomain.NewAmount(5),
		Period:   60,
	}, time.Unix(42, 0).UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), product))
	return repo, store, product
}

func TestCachedRepository_ServesRepeatReadsFromLRU(t *testing.T) {
	ctx := context.Background()
	repo, _, product := seededRepo(t)
	metrics := observability.NewInMemoryMetrics()
	cached := NewCachedRepository(repo, Config{Size: 8}, WithMetrics(metrics))

	for i := 0; i < 3; i++ {
		found, err := cached.FindByHash(ctx, product.Hash())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.True(t, found.HasTerms(product.Terms()))
		assert.Equal(t, product.CreatedAt(), found.CreatedAt())
	}

	assert.Equal(t, 1, repo.finds)
	assert.Equal(t, 1, cached.Len())
	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricCacheHits, observability.T("cache", "product"), observability.T("layer", "lru")))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricCacheMisses, observability.T("cache", "product"), observability.T("layer", "lru")))
}

func TestCachedRepository_MissIsNotCached(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := seededRepo(t)
	cached := NewCachedRepository(repo, Config{})

	unknown := sharedDomain.Keccak256([]byte("unknown"))
	for i := 0; i < 2; i++ {
		found, err := cached.FindByHash(ctx, unknown)
		require.NoError(t, err)
		assert.Nil(t, found)
	}
	assert.Equal(t, 2, repo.finds)
}

func TestCachedRepository_SkipsFillInsideTransaction(t *testing.T) {
	ctx := context.Background()
	repo, store, product := seededRepo(t)
	cached := NewCachedRepository(repo, Config{})

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	txCtx := memstore.WithTx(ctx, tx, true)
	_, err = cached.FindByHash(txCtx, product.Hash())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	assert.Equal(t, 0, cached.Len())
}

func TestCachedRepository_RemoteLayer(t *testing.T) {
	ctx := context.Background()
	repo, _, product := seededRepo(t)
	remote := newMapRemote()

	first := NewCachedRepository(repo, Config{}, WithRemote(remote))
	_, err := first.FindByHash(ctx, product.Hash())
	require.NoError(t, err)
	require.Contains(t, remote.data, "beaver:product:"+product.Hash().String())

	// A second process with a cold LRU is served by the shared layer.
	second := NewCachedRepository(repo, Config{}, WithRemote(remote))
	found, err := second.FindByHash(ctx, product.Hash())
	require.NoError(t, err)
	assert.True(t, found.HasTerms(product.Terms()))
	assert.Equal(t, 1, repo.finds)
}

func TestCachedRepository_RemoteFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	repo, _, product := seededRepo(t)
	remote := newMapRemote()
	remote.err = errors.New("connection refused")

	cached := NewCachedRepository(repo, Config{}, WithRemote(remote))
	found, err := cached.FindByHash(ctx, product.Hash())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 1, repo.finds)
}

func TestCachedRepository_DiscardsCorruptRemoteEntry(t *testing.T) {
	ctx := context.Background()
	repo, _, product := seededRepo(t)
	remote := newMapRemote()
	remote.data["beaver:product:"+product.Hash().String()] = []byte(`{"merchant":"0x00000000000000000000000000000000000000ff","amount":"1","period":1}`)

	cached := NewCachedRepository(repo, Config{}, WithRemote(remote))
	found, err := cached.FindByHash(ctx, product.Hash())
	require.NoError(t, err)
	assert.True(t, found.HasTerms(product.Terms()))
	assert.Equal(t, 1, repo.finds)
}
