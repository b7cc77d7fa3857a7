package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	assetsCommands "github.com/felixgeelhaar/beaver/internal/assets/application/commands"
	assetsQueries "github.com/felixgeelhaar/beaver/internal/assets/application/queries"
	paymentCommands "github.com/felixgeelhaar/beaver/internal/payments/application/commands"
	paymentQueries "github.com/felixgeelhaar/beaver/internal/payments/application/queries"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	subscriptionCommands "github.com/felixgeelhaar/beaver/internal/subscriptions/application/commands"
	subscriptionQueries "github.com/felixgeelhaar/beaver/internal/subscriptions/application/queries"
	"github.com/felixgeelhaar/beaver/pkg/config"
	"github.com/felixgeelhaar/beaver/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner      = sharedDomain.MustParseAddress("0x0000000000000000000000000000000000000001")
	custody    = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000be")
	treasury   = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000f0")
	merchant   = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000b2")
	subscriber = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000a1")
	bot        = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000e1")
	token      = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000c0")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                 "test",
		RouterOwner:            owner.String(),
		RouterDefaultInitiator: owner.String(),
		RouterTreasury:         treasury.String(),
		RouterCustody:          custody.String(),
		RouterFeeRate:          "10000000000000000", // 1%
		KeeperInitiator:        bot.String(),
		KeeperCompensation:     "10",
	}
}

// fund mints to the subscriber and lets custody pull it.
func fund(t *testing.T, c *Container, amount uint64) {
	t.Helper()
	ctx := context.Background()
	_, err := c.Mint.Handle(ctx, assetsCommands.MintCommand{Token: token, To: subscriber, Amount: sharedDomain.NewAmount(amount)})
	require.NoError(t, err)
	_, err = c.Approve.Handle(ctx, assetsCommands.ApproveCommand{
		Token: token, Owner: subscriber, Spender: custody, Amount: sharedDomain.NewAmount(amount),
	})
	require.NoError(t, err)
}

func balance(t *testing.T, c *Container, account sharedDomain.Address) string {
	t.Helper()
	dto, err := c.GetBalance.Handle(context.Background(), assetsQueries.GetBalanceQuery{Token: token, Account: account})
	require.NoError(t, err)
	return dto.Balance.String()
}

func setup(t *testing.T, c *Container, trial uint64) *subscriptionCommands.CreateProductAndStartSubscriptionResult {
	t.Helper()
	res, err := c.CreateProductAndStartSubscription.Handle(context.Background(), subscriptionCommands.CreateProductAndStartSubscriptionCommand{
		Caller:    subscriber,
		Merchant:  merchant,
		Token:     token,
		Amount:    sharedDomain.NewAmount(1_000_000),
		Period:    3600,
		FreeTrial: trial,
		Grace:     86400,
		Initiator: bot,
	})
	require.NoError(t, err)
	return res
}

func TestParseRouterParams(t *testing.T) {
	p, err := ParseRouterParams(testConfig())
	require.NoError(t, err)
	assert.Equal(t, owner, p.Owner)
	assert.Equal(t, custody, p.Custody)
	assert.Equal(t, "10000000000000000", p.FeeRate.String())

	t.Run("fee rate above one", func(t *testing.T) {
		cfg := testConfig()
		cfg.RouterFeeRate = "1000000000000000001"
		_, err := ParseRouterParams(cfg)
		assert.ErrorIs(t, err, sharedDomain.ErrInvalidParameters)
	})

	t.Run("fee without treasury", func(t *testing.T) {
		cfg := testConfig()
		cfg.RouterTreasury = sharedDomain.ZeroAddress.String()
		_, err := ParseRouterParams(cfg)
		assert.ErrorIs(t, err, sharedDomain.ErrInvalidParameters)
	})

	t.Run("zero custody", func(t *testing.T) {
		cfg := testConfig()
		cfg.RouterCustody = sharedDomain.ZeroAddress.String()
		_, err := ParseRouterParams(cfg)
		assert.ErrorIs(t, err, sharedDomain.ErrInvalidParameters)
	})

	t.Run("malformed address", func(t *testing.T) {
		cfg := testConfig()
		cfg.RouterOwner = "0xnothex"
		_, err := ParseRouterParams(cfg)
		assert.Error(t, err)
	})
}

func TestMemoryContainer_EndToEnd(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_000_000, 0).UTC()
	clock := sharedDomain.Clock(func() time.Time { return now })

	params, err := ParseRouterParams(testConfig())
	require.NoError(t, err)
	c := NewMemoryContainer(params, clock, testLogger())
	defer c.Close()
	assert.Equal(t, DriverMemory, c.Backend)

	fund(t, c, 5_000_000)
	res := setup(t, c, 1800)
	assert.True(t, res.ProductCreated)
	assert.Equal(t, sharedDomain.Timestamp(1_001_800), res.NextChargeAt)

	_, err = c.MakePayment.Handle(ctx, paymentCommands.MakePaymentCommand{Caller: bot, SubscriptionHash: res.SubscriptionHash})
	assert.ErrorIs(t, err, sharedDomain.ErrNotDue)

	now = now.Add(1800 * time.Second)
	paid, err := c.MakePayment.Handle(ctx, paymentCommands.MakePaymentCommand{
		Caller: bot, SubscriptionHash: res.SubscriptionHash, Compensation: sharedDomain.NewAmount(500),
	})
	require.NoError(t, err)
	assert.Equal(t, sharedDomain.Timestamp(1_005_400), paid.NextChargeAt)

	assert.Equal(t, "4000000", balance(t, c, subscriber))
	assert.Equal(t, "989500", balance(t, c, merchant))
	assert.Equal(t, "500", balance(t, c, bot))
	assert.Equal(t, "10000", balance(t, c, treasury))
	assert.Equal(t, "0", balance(t, c, custody))

	receipts, err := c.ListPayments.Handle(ctx, paymentQueries.ListPaymentsQuery{SubscriptionHash: res.SubscriptionHash})
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, sharedDomain.Timestamp(1_001_800), receipts[0].DueAt)

	sub, err := c.GetSubscription.Handle(ctx, subscriptionQueries.GetSubscriptionQuery{SubscriptionHash: res.SubscriptionHash})
	require.NoError(t, err)
	assert.Equal(t, "active", sub.Status)
}

func TestMemoryContainer_KeeperAndOutbox(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_000_000, 0).UTC()
	clock := sharedDomain.Clock(func() time.Time { return now })

	params, err := ParseRouterParams(testConfig())
	require.NoError(t, err)
	c := NewMemoryContainer(params, clock, testLogger())
	c.Config = testConfig()
	defer c.Close()

	fund(t, c, 5_000_000)
	res := setup(t, c, 0)

	k, err := c.NewKeeper()
	require.NoError(t, err)
	report, err := k.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Due)
	assert.Equal(t, 1, report.Collected)
	assert.Equal(t, "10", balance(t, c, bot))

	receipts, err := c.ListPayments.Handle(ctx, paymentQueries.ListPaymentsQuery{SubscriptionHash: res.SubscriptionHash})
	require.NoError(t, err)
	assert.Len(t, receipts, 1)

	processor, err := c.NewOutboxProcessor()
	require.NoError(t, err)
	require.NoError(t, processor.ProcessOnce(ctx))

	// product created, subscription started, payment collected
	assert.EqualValues(t, 3, processor.GetStats().PublishedCount)
}

func TestNewKeeper_RequiresInitiator(t *testing.T) {
	params, err := ParseRouterParams(testConfig())
	require.NoError(t, err)
	c := NewMemoryContainer(params, nil, testLogger())
	c.Config = testConfig()
	c.Config.KeeperInitiator = sharedDomain.ZeroAddress.String()

	_, err = c.NewKeeper()
	assert.ErrorIs(t, err, sharedDomain.ErrInvalidParameters)
}

func TestNewContainer_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.DatabaseDriver = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "router.db")

	c, err := NewContainer(ctx, cfg, testLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "sqlite", c.Backend)
	assert.NotNil(t, c.DBConn)
	assert.Nil(t, c.Store)
	assert.Nil(t, c.RedisClient)

	fund(t, c, 2_000_000)
	res := setup(t, c, 0)

	_, err = c.MakePayment.Handle(ctx, paymentCommands.MakePaymentCommand{Caller: bot, SubscriptionHash: res.SubscriptionHash})
	require.NoError(t, err)

	assert.Equal(t, "1000000", balance(t, c, subscriber))
	assert.Equal(t, "990000", balance(t, c, merchant))
	assert.Equal(t, "10000", balance(t, c, treasury))

	// the second charge is an hour away
	_, err = c.MakePayment.Handle(ctx, paymentCommands.MakePaymentCommand{Caller: bot, SubscriptionHash: res.SubscriptionHash})
	assert.ErrorIs(t, err, sharedDomain.ErrNotDue)

	report := c.Health.Check(ctx)
	require.Contains(t, report.Checks, "database")
	assert.Equal(t, observability.HealthStatusHealthy, report.Checks["database"].Status)
	assert.True(t, report.Ready())
}

func TestNewContainer_MemoryDriver(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseDriver = DriverMemory

	c, err := NewContainer(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, DriverMemory, c.Backend)
	assert.NotNil(t, c.Store)
	assert.Nil(t, c.DBConn)
	assert.NotNil(t, c.MetricsRegistry)
}

func TestNewContainer_InvalidParams(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseDriver = DriverMemory
	cfg.RouterCustody = "nope"

	_, err := NewContainer(context.Background(), cfg, testLogger())
	assert.Error(t, err)
}
