package queries

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	product    = sharedDomain.Keccak256([]byte("product"))
	subscriber = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000a1")
	initiator  = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000e1")
	relayer    = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000e2")
)

func save(t *testing.T, repo domain.Repository, initiator sharedDomain.Address, metadata string, trial uint64) *domain.Subscription {
	t.Helper()
	s, err := domain.NewSubscription(product, subscriber, initiator, sharedDomain.Keccak256([]byte(metadata)), trial, 10000, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), s))
	return s
}

func TestGetSubscriptionHandler_Handle(t *testing.T) {
	repo := persistence.NewMemorySubscriptionRepository(memstore.New())
	s := save(t, repo, initiator, "a", 1800)
	handler := NewGetSubscriptionHandler(repo)

	dto, err := handler.Handle(context.Background(), GetSubscriptionQuery{SubscriptionHash: s.Hash()})
	require.NoError(t, err)
	assert.Equal(t, s.Hash(), dto.SubscriptionHash)
	assert.Equal(t, initiator, dto.Initiator)
	assert.Equal(t, sharedDomain.Timestamp(1800), dto.NextChargeAt)

	raw, err := json.Marshal(dto)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"active"`)
	assert.Contains(t, string(raw), `"next_charge_at":1800`)

	_, err = handler.Handle(context.Background(), GetSubscriptionQuery{SubscriptionHash: sharedDomain.Keccak256([]byte("x"))})
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
}

func TestListSubscriptionsHandler_Handle(t *testing.T) {
	repo := persistence.NewMemorySubscriptionRepository(memstore.New())
	active := save(t, repo, initiator, "a", 0)
	ended, err := repo.FindByHash(context.Background(), save(t, repo, initiator, "b", 0).Hash())
	require.NoError(t, err)
	_, err = ended.Terminate(subscriber, 10)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), ended))
	handler := NewListSubscriptionsHandler(repo)

	all, err := handler.Handle(context.Background(), ListSubscriptionsQuery{Subscriber: subscriber})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := handler.Handle(context.Background(), ListSubscriptionsQuery{Subscriber: subscriber, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, active.Hash(), onlyActive[0].SubscriptionHash)
}

func TestListDueHandler_Handle(t *testing.T) {
	repo := persistence.NewMemorySubscriptionRepository(memstore.New())
	early := save(t, repo, initiator, "early", 100)
	late := save(t, repo, initiator, "late", 900)
	other := save(t, repo, relayer, "other", 50)
	save(t, repo, initiator, "future", 5000)

	now := time.Unix(1000, 0)
	handler := NewListDueHandler(repo, sharedDomain.FixedClock(now))

	t.Run("defaults to now across initiators", func(t *testing.T) {
		dtos, err := handler.Handle(context.Background(), ListDueQuery{})
		require.NoError(t, err)
		require.Len(t, dtos, 3)
		assert.Equal(t, other.Hash(), dtos[0].SubscriptionHash)
		assert.Equal(t, early.Hash(), dtos[1].SubscriptionHash)
		assert.Equal(t, late.Hash(), dtos[2].SubscriptionHash)
	})

	t.Run("filters by initiator and limit", func(t *testing.T) {
		dtos, err := handler.Handle(context.Background(), ListDueQuery{Initiator: initiator, Limit: 1})
		require.NoError(t, err)
		require.Len(t, dtos, 1)
		assert.Equal(t, early.Hash(), dtos[0].SubscriptionHash)
	})

	t.Run("explicit time", func(t *testing.T) {
		dtos, err := handler.Handle(context.Background(), ListDueQuery{At: 6000})
		require.NoError(t, err)
		assert.Len(t, dtos, 4)
	})

	t.Run("lapsed charges are left out", func(t *testing.T) {
		dtos, err := handler.Handle(context.Background(), ListDueQuery{At: 10100})
		require.NoError(t, err)
		require.Len(t, dtos, 3)
		assert.Equal(t, early.Hash(), dtos[0].SubscriptionHash)
		assert.Equal(t, sharedDomain.Timestamp(10100), dtos[0].CollectibleUntil)
		for _, dto := range dtos {
			assert.NotEqual(t, other.Hash(), dto.SubscriptionHash)
		}
	})
}
