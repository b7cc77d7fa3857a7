// Package keeper runs an initiator that collects due charges on a schedule.
package keeper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/beaver/internal/payments/application/commands"
	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	subscriptionsDomain "github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
	"github.com/felixgeelhaar/beaver/pkg/observability"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Config holds keeper settings.
type Config struct {
	// Initiator is the account the keeper collects as.
	Initiator    sharedDomain.Address
	Compensation sharedDomain.Amount
	Interval     time.Duration
	BatchSize    int
	Concurrency  int
	// RatePerSecond caps MakePayment calls. Zero disables the limit.
	RatePerSecond float64
	Burst         int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:      30 * time.Second,
		BatchSize:     100,
		Concurrency:   4,
		RatePerSecond: 10,
		Burst:         10,
	}
}

// Report summarizes one scan.
type Report struct {
	Due       int
	Collected int
	// Skipped counts charges that stopped being collectible between the
	// scan and the payment, such as one lapsing or paid by another keeper.
	Skipped int
	Failed  int
}

// Keeper scans subscriptions assigned to its initiator and collects every
// charge that is inside its payment window. Lapsed charges never reach the
// scan, so they cannot crowd payable ones out of a batch.
type Keeper struct {
	subscriptions subscriptionsDomain.Repository
	pay           sharedApplication.CommandHandler[commands.MakePaymentCommand, *commands.MakePaymentResult]
	config        Config
	clock         sharedDomain.Clock
	limiter       *rate.Limiter
	logger        *slog.Logger
	metrics       observability.Metrics
}

// Option configures a Keeper.
type Option func(*Keeper)

// WithMetrics records scans and attempts.
func WithMetrics(m observability.Metrics) Option {
	return func(k *Keeper) { k.metrics = m }
}

// WithClock overrides the time source.
func WithClock(c sharedDomain.Clock) Option {
	return func(k *Keeper) { k.clock = c }
}

// New creates a keeper.
func New(
	subscriptions subscriptionsDomain.Repository,
	pay sharedApplication.CommandHandler[commands.MakePaymentCommand, *commands.MakePaymentResult],
	config Config,
	logger *slog.Logger,
	opts ...Option,
) *Keeper {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	limit := rate.Inf
	if config.RatePerSecond > 0 {
		limit = rate.Limit(config.RatePerSecond)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	k := &Keeper{
		subscriptions: subscriptions,
		pay:           pay,
		config:        config,
		clock:         sharedDomain.SystemClock,
		limiter:       rate.NewLimiter(limit, burst),
		logger:        logger.With("component", "keeper", "initiator", config.Initiator.String()),
		metrics:       observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Run scans every Interval until ctx is cancelled.
func (k *Keeper) Run(ctx context.Context) error {
	k.logger.Info("keeper started",
		"interval", k.config.Interval,
		"batch_size", k.config.BatchSize,
		"concurrency", k.config.Concurrency,
	)

	ticker := time.NewTicker(k.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := k.RunOnce(ctx); err != nil && ctx.Err() == nil {
			k.logger.Error("keeper scan failed", "error", err)
		}
		select {
		case <-ctx.Done():
			k.logger.Info("keeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce collects the charges due now. Individual payment failures are
// counted in the report; only listing errors and cancellation are returned.
func (k *Keeper) RunOnce(ctx context.Context) (Report, error) {
	now := k.clock.Timestamp()
	due, err := k.subscriptions.FindDue(ctx, k.config.Initiator, now, k.config.BatchSize)
	if err != nil {
		return Report{}, err
	}
	k.metrics.Counter(observability.MetricKeeperScans, 1)

	var (
		mu     sync.Mutex
		report = Report{Due: len(due)}
	)
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(k.config.Concurrency)
	for _, sub := range due {
		g.Go(func() error {
			if err := k.limiter.Wait(gctx); err != nil {
				return err
			}
			outcome := k.collect(gctx, sub.Hash())
			k.attempt(outcome)
			switch outcome {
			case "collected":
				count(&report.Collected)
			case "not_due", "expired":
				count(&report.Skipped)
			default:
				count(&report.Failed)
			}
			return nil
		})
	}
	err = g.Wait()

	k.logger.Info("keeper scan finished",
		"due", report.Due,
		"collected", report.Collected,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, err
}

func (k *Keeper) collect(ctx context.Context, hash sharedDomain.Hash) string {
	res, err := k.pay.Handle(ctx, commands.MakePaymentCommand{
		Caller:           k.config.Initiator,
		SubscriptionHash: hash,
		Compensation:     k.config.Compensation,
	})
	if err != nil {
		reason := commands.RejectionReason(err)
		level := slog.LevelWarn
		if errors.Is(err, sharedDomain.ErrNotDue) || errors.Is(err, sharedDomain.ErrExpired) {
			level = slog.LevelDebug
		}
		k.logger.Log(ctx, level, "payment rejected", "subscription", hash.String(), "reason", reason, "error", err)
		return reason
	}
	k.logger.Debug("payment collected",
		"subscription", hash.String(),
		"due_at", uint64(res.DueAt),
		"next_charge_at", uint64(res.NextChargeAt),
	)
	return "collected"
}

func (k *Keeper) attempt(outcome string) {
	k.metrics.Counter(observability.MetricKeeperAttempts, 1, observability.T("outcome", outcome))
}
