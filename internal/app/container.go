package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	assetsApplication "github.com/felixgeelhaar/beaver/internal/assets/application"
	assetsCommands "github.com/felixgeelhaar/beaver/internal/assets/application/commands"
	assetsQueries "github.com/felixgeelhaar/beaver/internal/assets/application/queries"
	assetsDomain "github.com/felixgeelhaar/beaver/internal/assets/domain"
	catalogCommands "github.com/felixgeelhaar/beaver/internal/catalog/application/commands"
	catalogQueries "github.com/felixgeelhaar/beaver/internal/catalog/application/queries"
	catalogDomain "github.com/felixgeelhaar/beaver/internal/catalog/domain"
	"github.com/felixgeelhaar/beaver/internal/catalog/infrastructure/cache"
	paymentCommands "github.com/felixgeelhaar/beaver/internal/payments/application/commands"
	"github.com/felixgeelhaar/beaver/internal/payments/application/keeper"
	paymentQueries "github.com/felixgeelhaar/beaver/internal/payments/application/queries"
	paymentsDomain "github.com/felixgeelhaar/beaver/internal/payments/domain"
	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	subscriptionCommands "github.com/felixgeelhaar/beaver/internal/subscriptions/application/commands"
	subscriptionQueries "github.com/felixgeelhaar/beaver/internal/subscriptions/application/queries"
	subscriptionsDomain "github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
	"github.com/felixgeelhaar/beaver/pkg/config"
	"github.com/felixgeelhaar/beaver/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// DriverMemory selects the in-process store. State is lost on exit.
const DriverMemory = "memory"

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Params RouterParams
	Clock  sharedDomain.Clock

	// Observability
	Metrics         observability.Metrics
	MetricsRegistry *prometheus.Registry
	Health          *observability.HealthRegistry

	// Storage. Exactly one of DBConn and Store is set.
	DBConn      database.Connection
	Store       *memstore.Store
	Backend     string
	RedisClient *redis.Client

	// Repositories
	UnitOfWork       sharedApplication.UnitOfWork
	OutboxRepo       outbox.Repository
	ProductRepo      catalogDomain.Repository
	ProductCache     *cache.CachedRepository
	SubscriptionRepo subscriptionsDomain.Repository
	PaymentRepo      paymentsDomain.Repository
	TokenLedger      assetsDomain.TokenLedger
	Transfers        *assetsApplication.TransferAdapter

	// Command handlers, instrumented
	CreateProduct                     sharedApplication.CommandHandler[catalogCommands.CreateProductCommand, *catalogCommands.CreateProductResult]
	StartSubscription                 sharedApplication.CommandHandler[subscriptionCommands.StartSubscriptionCommand, *subscriptionCommands.StartSubscriptionResult]
	CreateProductAndStartSubscription sharedApplication.CommandHandler[subscriptionCommands.CreateProductAndStartSubscriptionCommand, *subscriptionCommands.CreateProductAndStartSubscriptionResult]
	ChangeInitiator                   sharedApplication.CommandHandler[subscriptionCommands.ChangeInitiatorCommand, *subscriptionCommands.ChangeInitiatorResult]
	ChangeInitiatorForAll             sharedApplication.CommandHandler[subscriptionCommands.ChangeInitiatorForAllCommand, *subscriptionCommands.ChangeInitiatorResult]
	TerminateSubscription             sharedApplication.CommandHandler[subscriptionCommands.TerminateSubscriptionCommand, *subscriptionCommands.TerminateSubscriptionResult]
	MakePayment                       sharedApplication.CommandHandler[paymentCommands.MakePaymentCommand, *paymentCommands.MakePaymentResult]
	Mint                              sharedApplication.CommandHandler[assetsCommands.MintCommand, *assetsCommands.MintResult]
	Approve                           sharedApplication.CommandHandler[assetsCommands.ApproveCommand, struct{}]

	// Query handlers
	GetProduct        *catalogQueries.GetProductHandler
	ListProducts      *catalogQueries.ListProductsHandler
	GetSubscription   *subscriptionQueries.GetSubscriptionHandler
	ListSubscriptions *subscriptionQueries.ListSubscriptionsHandler
	ListDue           *subscriptionQueries.ListDueHandler
	ListPayments      *paymentQueries.ListPaymentsHandler
	GetBalance        *assetsQueries.GetBalanceHandler

	// Set by NewOutboxProcessor
	EventPublisher eventbus.Publisher
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	params, err := ParseRouterParams(cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Container{
		Config:          cfg,
		Logger:          logger,
		Params:          params,
		Clock:           sharedDomain.SystemClock,
		Metrics:         observability.NewPrometheusMetrics(registry),
		MetricsRegistry: registry,
		Health:          observability.NewHealthRegistry(),
	}

	factory, err := c.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	c.connectRedis(ctx)
	c.wire(factory)

	logger.Info("router ready",
		"backend", c.Backend,
		"custody", params.Custody.String(),
		"default_initiator", params.DefaultInitiator.String(),
		"fee_rate", params.FeeRate.String(),
	)
	return c, nil
}

// NewMemoryContainer creates a container over a fresh in-memory store with
// no external services. clock may be nil.
func NewMemoryContainer(params RouterParams, clock sharedDomain.Clock, logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = sharedDomain.SystemClock
	}
	c := &Container{
		Config:  &config.Config{AppEnv: "development", DatabaseDriver: DriverMemory},
		Logger:  logger,
		Params:  params,
		Clock:   clock,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
		Store:   memstore.New(),
		Backend: DriverMemory,
	}
	c.wire(NewMemoryRepositoryFactory(c.Store))
	return c
}

func (c *Container) openStorage(ctx context.Context) (*RepositoryFactory, error) {
	cfg := c.Config
	if cfg.DatabaseDriver == DriverMemory {
		c.Store = memstore.New()
		c.Backend = DriverMemory
		c.Logger.Warn("using in-memory store, state is lost on exit")
		return NewMemoryRepositoryFactory(c.Store), nil
	}

	dbCfg := database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	}
	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	c.DBConn = conn
	c.Backend = conn.Driver().String()
	c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	c.Logger.Info("connected to database", "driver", c.Backend)
	return NewRepositoryFactory(conn), nil
}

// connectRedis attaches the shared product cache. Redis is optional: without
// it every process keeps only its local LRU.
func (c *Container) connectRedis(ctx context.Context) {
	if c.Config.RedisURL == "" {
		return
	}
	client, err := cache.DialRedis(ctx, c.Config.RedisURL)
	if err != nil {
		c.Logger.Warn("Redis not available, product cache is process-local", "error", err)
		return
	}
	c.RedisClient = client
	c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
}

func (c *Container) wire(factory *RepositoryFactory) {
	logger, metrics, clock := c.Logger, c.Metrics, c.Clock

	c.UnitOfWork = factory.UnitOfWork()
	c.OutboxRepo = factory.OutboxRepository()
	c.SubscriptionRepo = factory.SubscriptionRepository()
	c.PaymentRepo = factory.PaymentRepository()

	cacheOpts := []cache.Option{cache.WithMetrics(metrics), cache.WithLogger(logger)}
	if c.RedisClient != nil {
		cacheOpts = append(cacheOpts, cache.WithRemote(cache.NewRedisStore(c.RedisClient)))
	}
	cacheCfg := cache.Config{Size: 1024, TTL: 24 * time.Hour}
	if c.Config.ProductCacheSize > 0 {
		cacheCfg.Size = c.Config.ProductCacheSize
	}
	if c.Config.ProductCacheTTL > 0 {
		cacheCfg.TTL = c.Config.ProductCacheTTL
	}
	c.ProductCache = cache.NewCachedRepository(factory.ProductRepository(), cacheCfg, cacheOpts...)
	c.ProductRepo = c.ProductCache

	ledger := assetsDomain.NewLedger(factory.BalanceStore())
	c.TokenLedger = ledger
	c.Transfers = assetsApplication.NewTransferAdapter(ledger, c.Params.Custody)

	createProduct := catalogCommands.NewCreateProductHandler(c.ProductRepo, c.OutboxRepo, c.UnitOfWork, clock).WithMetrics(metrics)
	start := subscriptionCommands.NewStartSubscriptionHandler(
		c.SubscriptionRepo, c.ProductRepo, c.OutboxRepo, c.UnitOfWork, clock, c.Params.DefaultInitiator,
	).WithMetrics(metrics)
	changeInitiator := subscriptionCommands.NewChangeInitiatorHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork, clock)
	terminate := subscriptionCommands.NewTerminateSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork, clock).WithMetrics(metrics)
	pay := paymentCommands.NewMakePaymentHandler(
		c.SubscriptionRepo, c.ProductRepo, c.PaymentRepo, c.OutboxRepo, c.Transfers, c.UnitOfWork, clock,
		paymentCommands.FeeConfig{Rate: c.Params.FeeRate, Treasury: c.Params.Treasury},
	).WithMetrics(metrics)

	c.CreateProduct = sharedApplication.Instrument[catalogCommands.CreateProductCommand, *catalogCommands.CreateProductResult](createProduct, logger, metrics)
	c.StartSubscription = sharedApplication.Instrument[subscriptionCommands.StartSubscriptionCommand, *subscriptionCommands.StartSubscriptionResult](start, logger, metrics)
	c.CreateProductAndStartSubscription = sharedApplication.Instrument[subscriptionCommands.CreateProductAndStartSubscriptionCommand, *subscriptionCommands.CreateProductAndStartSubscriptionResult](
		subscriptionCommands.NewCreateProductAndStartSubscriptionHandler(createProduct, start, c.UnitOfWork), logger, metrics)
	c.ChangeInitiator = sharedApplication.Instrument[subscriptionCommands.ChangeInitiatorCommand, *subscriptionCommands.ChangeInitiatorResult](changeInitiator, logger, metrics)
	c.ChangeInitiatorForAll = sharedApplication.Instrument(changeInitiator.ForAll(), logger, metrics)
	c.TerminateSubscription = sharedApplication.Instrument[subscriptionCommands.TerminateSubscriptionCommand, *subscriptionCommands.TerminateSubscriptionResult](terminate, logger, metrics)
	c.MakePayment = sharedApplication.Instrument[paymentCommands.MakePaymentCommand, *paymentCommands.MakePaymentResult](pay, logger, metrics)
	c.Mint = sharedApplication.Instrument[assetsCommands.MintCommand, *assetsCommands.MintResult](assetsCommands.NewMintHandler(ledger, c.UnitOfWork), logger, metrics)
	c.Approve = sharedApplication.Instrument[assetsCommands.ApproveCommand, struct{}](assetsCommands.NewApproveHandler(ledger, c.UnitOfWork), logger, metrics)

	c.GetProduct = catalogQueries.NewGetProductHandler(c.ProductRepo)
	c.ListProducts = catalogQueries.NewListProductsHandler(c.ProductRepo)
	c.GetSubscription = subscriptionQueries.NewGetSubscriptionHandler(c.SubscriptionRepo)
	c.ListSubscriptions = subscriptionQueries.NewListSubscriptionsHandler(c.SubscriptionRepo)
	c.ListDue = subscriptionQueries.NewListDueHandler(c.SubscriptionRepo, clock)
	c.ListPayments = paymentQueries.NewListPaymentsHandler(c.PaymentRepo)
	c.GetBalance = assetsQueries.NewGetBalanceHandler(ledger)
}

// NewOutboxProcessor connects the event publisher and creates the processor
// that drains the outbox into it. Without RABBITMQ_URL events are logged and
// dropped; a broker that cannot be reached is fatal outside development.
func (c *Container) NewOutboxProcessor() (*outbox.Processor, error) {
	cfg := c.Config
	var publisher eventbus.Publisher = eventbus.NewNoopPublisher(c.Logger)
	if cfg.RabbitMQURL != "" {
		rabbit, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
		switch {
		case err == nil:
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(func(context.Context) error {
				if !rabbit.Healthy() {
					return errors.New("connection closed")
				}
				return nil
			}))
			publisher = eventbus.NewBreakerPublisher(rabbit, eventbus.DefaultBreakerConfig(), c.Logger)
		case cfg.IsDevelopment():
			c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		default:
			return nil, err
		}
	}
	c.EventPublisher = publisher

	processorCfg := outbox.DefaultProcessorConfig()
	if cfg.OutboxPollInterval > 0 {
		processorCfg.PollInterval = cfg.OutboxPollInterval
	}
	if cfg.OutboxBatchSize > 0 {
		processorCfg.BatchSize = cfg.OutboxBatchSize
	}
	if cfg.OutboxMaxRetries > 0 {
		processorCfg.MaxRetries = cfg.OutboxMaxRetries
	}
	processorCfg.Retention = time.Duration(cfg.OutboxRetentionDays) * 24 * time.Hour
	if cfg.OutboxCleanupInterval > 0 {
		processorCfg.CleanupInterval = cfg.OutboxCleanupInterval
	}

	return outbox.NewProcessor(c.OutboxRepo, publisher, processorCfg, c.Logger,
		outbox.WithMetrics(c.Metrics), outbox.WithClock(c.Clock)), nil
}

// NewKeeper creates the payment keeper configured by KEEPER_* settings.
func (c *Container) NewKeeper() (*keeper.Keeper, error) {
	cfg := c.Config
	initiator, err := sharedDomain.ParseAddress(cfg.KeeperInitiator)
	if err != nil {
		return nil, fmt.Errorf("KEEPER_INITIATOR: %w", err)
	}
	if initiator.IsZero() {
		return nil, fmt.Errorf("%w: KEEPER_INITIATOR must be set", sharedDomain.ErrInvalidParameters)
	}
	compensation, err := sharedDomain.ParseAmount(cfg.KeeperCompensation)
	if err != nil {
		return nil, fmt.Errorf("KEEPER_COMPENSATION: %w", err)
	}

	keeperCfg := keeper.DefaultConfig()
	keeperCfg.Initiator = initiator
	keeperCfg.Compensation = compensation
	if cfg.KeeperInterval > 0 {
		keeperCfg.Interval = cfg.KeeperInterval
	}
	if cfg.KeeperBatchSize > 0 {
		keeperCfg.BatchSize = cfg.KeeperBatchSize
	}
	if cfg.KeeperConcurrency > 0 {
		keeperCfg.Concurrency = cfg.KeeperConcurrency
	}
	keeperCfg.RatePerSecond = cfg.KeeperRatePerSec
	if cfg.KeeperBurst > 0 {
		keeperCfg.Burst = cfg.KeeperBurst
	}

	return keeper.New(c.SubscriptionRepo, c.MakePayment, keeperCfg, c.Logger,
		keeper.WithMetrics(c.Metrics), keeper.WithClock(c.Clock)), nil
}

// Close releases the database, Redis and broker connections.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.Backend)
		}
	}
}
