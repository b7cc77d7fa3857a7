package commands

import (
	"context"
	"testing"
	"time"

	catalogCommands "github.com/felixgeelhaar/beaver/internal/catalog/application/commands"
	catalogPersistence "github.com/felixgeelhaar/beaver/internal/catalog/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/infrastructure/persistence"
	"github.com/felixgeelhaar/beaver/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	merchant         = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000b2")
	token            = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000c0")
	subscriber       = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000a1")
	initiator        = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000e1")
	relayer          = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000e2")
	defaultInitiator = sharedDomain.MustParseAddress("0x0000000000000000000000000000000000000001")
	stranger         = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000ff")
)

type fixture struct {
	now           time.Time
	store         *memstore.Store
	subscriptions *persistence.MemorySubscriptionRepository
	outbox        *outbox.MemoryRepository
	createProduct *catalogCommands.CreateProductHandler
	start         *StartSubscriptionHandler
	setup         *CreateProductAndStartSubscriptionHandler
	change        *ChangeInitiatorHandler
	terminate     *TerminateSubscriptionHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Unix(0, 0).UTC(), store: memstore.New()}
	clock := sharedDomain.Clock(func() time.Time { return f.now })
	uow := memstore.NewUnitOfWork(f.store)
	products := catalogPersistence.NewMemoryProductRepository(f.store)
	f.subscriptions = persistence.NewMemorySubscriptionRepository(f.store)
	f.outbox = outbox.NewMemoryRepository(f.store)

	f.createProduct = catalogCommands.NewCreateProductHandler(products, f.outbox, uow, clock)
	f.start = NewStartSubscriptionHandler(f.subscriptions, products, f.outbox, uow, clock, defaultInitiator)
	f.setup = NewCreateProductAndStartSubscriptionHandler(f.createProduct, f.start, uow)
	f.change = NewChangeInitiatorHandler(f.subscriptions, f.outbox, uow, clock)
	f.terminate = NewTerminateSubscriptionHandler(f.subscriptions, f.outbox, uow, clock)
	return f
}

func productCommand() catalogCommands.CreateProductCommand {
	return catalogCommands.CreateProductCommand{
		Caller:    merchant,
		Merchant:  merchant,
		Token:     token,
		Amount:    sharedDomain.NewAmount(1_000_000),
		Period:    3600,
		FreeTrial: 1800,
		Grace:     1800,
	}
}

func (f *fixture) product(t *testing.T) sharedDomain.Hash {
	t.Helper()
	res, err := f.createProduct.Handle(context.Background(), productCommand())
	require.NoError(t, err)
	return res.ProductHash
}

func (f *fixture) subscribe(t *testing.T, product sharedDomain.Hash, initiator sharedDomain.Address) sharedDomain.Hash {
	t.Helper()
	res, err := f.start.Handle(context.Background(), StartSubscriptionCommand{
		Caller: subscriber, ProductHash: product, Initiator: initiator,
	})
	require.NoError(t, err)
	return res.SubscriptionHash
}

func (f *fixture) load(t *testing.T, hash sharedDomain.Hash) *domain.Subscription {
	t.Helper()
	s, err := f.subscriptions.FindByHash(context.Background(), hash)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func (f *fixture) routingKeys(t *testing.T) []string {
	t.Helper()
	msgs, err := f.outbox.All(context.Background())
	require.NoError(t, err)
	keys := make([]string, 0, len(msgs))
	for _, m := range msgs {
		keys = append(keys, m.RoutingKey)
	}
	return keys
}

func TestStartSubscriptionHandler_Handle(t *testing.T) {
	t.Run("opens with the trial applied", func(t *testing.T) {
		f := newFixture(t)
		product := f.product(t)

		res, err := f.start.Handle(context.Background(), StartSubscriptionCommand{
			Caller: subscriber, ProductHash: product, Initiator: initiator,
		})
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, sharedDomain.SubscriptionHash(product, subscriber, sharedDomain.ZeroHash), res.SubscriptionHash)
		assert.Equal(t, sharedDomain.Timestamp(1800), res.NextChargeAt)

		s := f.load(t, res.SubscriptionHash)
		assert.Equal(t, subscriber, s.Subscriber())
		assert.Equal(t, initiator, s.Initiator())
		assert.Equal(t, domain.StatusActive, s.Status())
		assert.Equal(t, []string{"catalog.product.created", "subscriptions.subscription.started"}, f.routingKeys(t))
	})

	t.Run("falls back to the default initiator", func(t *testing.T) {
		f := newFixture(t)
		hash := f.subscribe(t, f.product(t), sharedDomain.ZeroAddress)
		assert.Equal(t, defaultInitiator, f.load(t, hash).Initiator())
	})

	t.Run("unknown product is not found and persists nothing", func(t *testing.T) {
		f := newFixture(t)
		unknown := sharedDomain.Keccak256([]byte("unknown"))

		_, err := f.start.Handle(context.Background(), StartSubscriptionCommand{Caller: subscriber, ProductHash: unknown})
		assert.ErrorIs(t, err, sharedDomain.ErrNotFound)

		subs, err := f.subscriptions.FindBySubscriber(context.Background(), subscriber)
		require.NoError(t, err)
		assert.Empty(t, subs)
		assert.Empty(t, f.routingKeys(t))
	})

	t.Run("repeating an active subscription is a no-op", func(t *testing.T) {
		f := newFixture(t)
		product := f.product(t)
		first := f.subscribe(t, product, initiator)

		f.now = f.now.Add(time.Hour)
		res, err := f.start.Handle(context.Background(), StartSubscriptionCommand{
			Caller: subscriber, ProductHash: product, Initiator: relayer,
		})
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.Equal(t, first, res.SubscriptionHash)
		assert.Equal(t, sharedDomain.Timestamp(1800), res.NextChargeAt)
		assert.Equal(t, initiator, f.load(t, first).Initiator())
	})

	t.Run("a terminated subscription cannot be restarted", func(t *testing.T) {
		f := newFixture(t)
		product := f.product(t)
		hash := f.subscribe(t, product, initiator)
		_, err := f.terminate.Handle(context.Background(), TerminateSubscriptionCommand{Caller: subscriber, SubscriptionHash: hash})
		require.NoError(t, err)

		_, err = f.start.Handle(context.Background(), StartSubscriptionCommand{Caller: subscriber, ProductHash: product})
		assert.ErrorIs(t, err, sharedDomain.ErrAlreadyTerminated)

		res, err := f.start.Handle(context.Background(), StartSubscriptionCommand{
			Caller: subscriber, ProductHash: product, MetadataHash: sharedDomain.Keccak256([]byte("renewal")),
		})
		require.NoError(t, err)
		assert.True(t, res.Created)
	})
}

func TestCreateProductAndStartSubscriptionHandler_Handle(t *testing.T) {
	t.Run("creates both records", func(t *testing.T) {
		f := newFixture(t)
		pc := productCommand()
		res, err := f.setup.Handle(context.Background(), CreateProductAndStartSubscriptionCommand{
			Caller:               subscriber,
			Merchant:             pc.Merchant,
			Token:                pc.Token,
			Amount:               pc.Amount,
			Period:               pc.Period,
			FreeTrial:            pc.FreeTrial,
			Grace:                pc.Grace,
			ProductMetadata:      sharedDomain.Keccak256([]byte("plan")),
			SubscriptionMetadata: sharedDomain.Keccak256([]byte("seat")),
			Initiator:            initiator,
		})
		require.NoError(t, err)
		assert.True(t, res.ProductCreated)
		assert.Equal(t, sharedDomain.SubscriptionHash(res.ProductHash, subscriber, sharedDomain.Keccak256([]byte("seat"))), res.SubscriptionHash)
		assert.Equal(t, sharedDomain.Timestamp(1800), f.load(t, res.SubscriptionHash).NextChargeAt())
		assert.Len(t, f.routingKeys(t), 2)
	})

	t.Run("invalid subscription rolls back the product", func(t *testing.T) {
		f := newFixture(t)
		pc := productCommand()
		_, err := f.setup.Handle(context.Background(), CreateProductAndStartSubscriptionCommand{
			Caller:   sharedDomain.ZeroAddress,
			Merchant: pc.Merchant,
			Token:    pc.Token,
			Amount:   pc.Amount,
			Period:   pc.Period,
		})
		assert.ErrorIs(t, err, sharedDomain.ErrInvalidParameters)

		products := catalogPersistence.NewMemoryProductRepository(f.store)
		listed, err := products.FindByMerchant(context.Background(), merchant)
		require.NoError(t, err)
		assert.Empty(t, listed)
		assert.Empty(t, f.routingKeys(t))
	})

	t.Run("counts products and subscriptions only once committed", func(t *testing.T) {
		f := newFixture(t)
		metrics := observability.NewInMemoryMetrics()
		f.createProduct.WithMetrics(metrics)
		f.start.WithMetrics(metrics)
		pc := productCommand()
		cmd := CreateProductAndStartSubscriptionCommand{
			Caller:   sharedDomain.ZeroAddress,
			Merchant: pc.Merchant,
			Token:    pc.Token,
			Amount:   pc.Amount,
			Period:   pc.Period,
		}

		_, err := f.setup.Handle(context.Background(), cmd)
		require.ErrorIs(t, err, sharedDomain.ErrInvalidParameters)
		assert.Zero(t, metrics.GetCounter(observability.MetricProductsCreated))
		assert.Zero(t, metrics.GetCounter(observability.MetricSubscriptionsStarted))

		cmd.Caller = subscriber
		_, err = f.setup.Handle(context.Background(), cmd)
		require.NoError(t, err)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricProductsCreated))
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSubscriptionsStarted))
	})
}

func TestChangeInitiatorHandler_Handle(t *testing.T) {
	t.Run("subscriber reassigns", func(t *testing.T) {
		f := newFixture(t)
		hash := f.subscribe(t, f.product(t), initiator)

		res, err := f.change.Handle(context.Background(), ChangeInitiatorCommand{
			Caller: subscriber, SubscriptionHash: hash, OldInitiator: initiator, NewInitiator: relayer,
		})
		require.NoError(t, err)
		assert.Equal(t, []sharedDomain.Hash{hash}, res.SubscriptionHashes)
		assert.Equal(t, relayer, f.load(t, hash).Initiator())
		assert.Contains(t, f.routingKeys(t), "subscriptions.initiator.changed")
	})

	t.Run("initiator cannot reassign itself", func(t *testing.T) {
		f := newFixture(t)
		hash := f.subscribe(t, f.product(t), initiator)

		_, err := f.change.Handle(context.Background(), ChangeInitiatorCommand{
			Caller: initiator, SubscriptionHash: hash, OldInitiator: initiator, NewInitiator: relayer,
		})
		assert.ErrorIs(t, err, sharedDomain.ErrUnauthorized)
		assert.Equal(t, initiator, f.load(t, hash).Initiator())
	})

	t.Run("subscriber must name the current initiator", func(t *testing.T) {
		f := newFixture(t)
		hash := f.subscribe(t, f.product(t), initiator)

		_, err := f.change.Handle(context.Background(), ChangeInitiatorCommand{
			Caller: subscriber, SubscriptionHash: hash, OldInitiator: stranger, NewInitiator: relayer,
		})
		assert.ErrorIs(t, err, sharedDomain.ErrUnauthorized)
		assert.ErrorIs(t, err, domain.ErrInitiatorMismatch)
		assert.Equal(t, initiator, f.load(t, hash).Initiator())
		assert.NotContains(t, f.routingKeys(t), "subscriptions.initiator.changed")
	})

	t.Run("unknown subscription", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.change.Handle(context.Background(), ChangeInitiatorCommand{
			Caller: subscriber, SubscriptionHash: sharedDomain.Keccak256([]byte("x")), OldInitiator: initiator, NewInitiator: relayer,
		})
		assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
	})
}

func TestChangeInitiatorHandler_HandleForAll(t *testing.T) {
	f := newFixture(t)
	product := f.product(t)
	first := f.subscribe(t, product, initiator)
	res, err := f.start.Handle(context.Background(), StartSubscriptionCommand{
		Caller: subscriber, ProductHash: product, Initiator: initiator, MetadataHash: sharedDomain.Keccak256([]byte("2")),
	})
	require.NoError(t, err)
	second := res.SubscriptionHash
	res, err = f.start.Handle(context.Background(), StartSubscriptionCommand{
		Caller: subscriber, ProductHash: product, Initiator: stranger, MetadataHash: sharedDomain.Keccak256([]byte("3")),
	})
	require.NoError(t, err)
	untouched := res.SubscriptionHash

	changed, err := f.change.ForAll().Handle(context.Background(), ChangeInitiatorForAllCommand{
		Caller: subscriber, OldInitiator: initiator, NewInitiator: relayer,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []sharedDomain.Hash{first, second}, changed.SubscriptionHashes)
	assert.Equal(t, relayer, f.load(t, first).Initiator())
	assert.Equal(t, relayer, f.load(t, second).Initiator())
	assert.Equal(t, stranger, f.load(t, untouched).Initiator())

	_, err = f.change.HandleForAll(context.Background(), ChangeInitiatorForAllCommand{
		Caller: subscriber, OldInitiator: initiator, NewInitiator: relayer,
	})
	assert.ErrorIs(t, err, domain.ErrInitiatorMismatch)
}

func TestTerminateSubscriptionHandler_Handle(t *testing.T) {
	t.Run("is idempotent", func(t *testing.T) {
		f := newFixture(t)
		hash := f.subscribe(t, f.product(t), initiator)

		res, err := f.terminate.Handle(context.Background(), TerminateSubscriptionCommand{Caller: initiator, SubscriptionHash: hash})
		require.NoError(t, err)
		assert.True(t, res.Terminated)

		before := f.load(t, hash)
		res, err = f.terminate.Handle(context.Background(), TerminateSubscriptionCommand{Caller: subscriber, SubscriptionHash: hash})
		require.NoError(t, err)
		assert.False(t, res.Terminated)

		after := f.load(t, hash)
		assert.Equal(t, domain.StatusTerminated, after.Status())
		assert.Equal(t, before.Version(), after.Version())

		terminations := 0
		for _, key := range f.routingKeys(t) {
			if key == "subscriptions.subscription.terminated" {
				terminations++
			}
		}
		assert.Equal(t, 1, terminations)
	})

	t.Run("stranger is unauthorized", func(t *testing.T) {
		f := newFixture(t)
		hash := f.subscribe(t, f.product(t), initiator)

		_, err := f.terminate.Handle(context.Background(), TerminateSubscriptionCommand{Caller: stranger, SubscriptionHash: hash})
		assert.ErrorIs(t, err, sharedDomain.ErrUnauthorized)
		assert.True(t, f.load(t, hash).IsActive())
	})

	t.Run("unknown subscription", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.terminate.Handle(context.Background(), TerminateSubscriptionCommand{Caller: subscriber, SubscriptionHash: sharedDomain.Keccak256([]byte("x"))})
		assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
	})
}
