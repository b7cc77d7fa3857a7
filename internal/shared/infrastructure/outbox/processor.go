package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/beaver/pkg/observability"
)

// ProcessorConfig tunes the outbox processor.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxRetries is the number of failed publishes after which a message is
	// dead-lettered. Zero or less dead-letters on the first failure.
	MaxRetries int
	// Failed publishes wait RetryBackoffBase, doubling per attempt up to
	// RetryBackoffMax.
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	// Retention is how long published messages are kept. Zero keeps them.
	Retention       time.Duration
	CleanupInterval time.Duration
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        14 * 24 * time.Hour,
		CleanupInterval:  24 * time.Hour,
	}
}

// backoff is the wait after the attempt-th failure (1-based).
func (c ProcessorConfig) backoff(attempt int) time.Duration {
	base, ceiling := c.RetryBackoffBase, c.RetryBackoffMax
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}
	d := base
	for i := 1; i < attempt && d < ceiling; i++ {
		d *= 2
	}
	return min(d, ceiling)
}

// Stats is a snapshot of the processor, served on the worker's /healthz.
type Stats struct {
	IsRunning       bool       `json:"running"`
	PublishedCount  uint64     `json:"published"`
	FailedCount     uint64     `json:"failed"`
	DeadCount       uint64     `json:"dead"`
	LagSeconds      float64    `json:"lag_seconds"`
	LastError       string     `json:"last_error,omitempty"`
	LastErrorAt     *time.Time `json:"last_error_at,omitempty"`
	LastProcessedAt *time.Time `json:"last_processed_at,omitempty"`
}

// Processor moves outbox messages to the broker. Publishing happens after the
// producing transaction commits, so a message may be delivered more than once
// but is never lost.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	clock     domain.Clock

	mu    sync.Mutex
	stats Stats
}

// Option configures a Processor.
type Option func(*Processor)

// WithMetrics records publish outcomes and lag.
func WithMetrics(m observability.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithClock overrides the time source.
func WithClock(c domain.Clock) Option {
	return func(p *Processor) { p.clock = c }
}

func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger.With("component", "outbox"),
		metrics:   observability.NoopMetrics{},
		clock:     domain.SystemClock,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run publishes every PollInterval and prunes every CleanupInterval until
// ctx is canceled. Batch errors are logged and retried on the next tick.
func (p *Processor) Run(ctx context.Context) error {
	p.update(func(s *Stats) { s.IsRunning = true })
	defer p.update(func(s *Stats) { s.IsRunning = false })

	p.logger.Info("outbox processor started", "poll_interval", p.config.PollInterval, "batch_size", p.config.BatchSize)

	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()

	var prune <-chan time.Time
	if p.config.Retention > 0 && p.config.CleanupInterval > 0 {
		t := time.NewTicker(p.config.CleanupInterval)
		defer t.Stop()
		prune = t.C
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor stopped")
			return nil
		case <-poll.C:
			if err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error("outbox batch failed", "error", err)
			}
		case <-prune:
			if _, err := p.Cleanup(ctx); err != nil {
				p.logger.Error("outbox cleanup failed", "error", err)
			}
		}
	}
}

// ProcessOnce publishes one batch of ready messages, oldest first.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	now := p.clock()
	batch, err := p.repo.GetUnpublished(ctx, now, p.config.BatchSize)
	if err != nil {
		p.fail(err, now)
		return err
	}
	p.observeLag(now, batch)

	for _, msg := range batch {
		env := msg.Envelope()
		tag := observability.T("routing_key", env.RoutingKey)

		if err := p.publisher.Publish(ctx, env); err != nil {
			p.metrics.Counter(observability.MetricEventsFailed, 1, tag)
			p.retryOrBury(ctx, msg, env, err)
			continue
		}
		// A failed mark leaves the message ready, so it is published again.
		if err := p.repo.MarkPublished(ctx, msg.ID, p.clock()); err != nil {
			p.logger.Error("could not mark message published", "id", msg.ID, "message_id", env.MessageID, "error", err)
			continue
		}
		p.metrics.Counter(observability.MetricEventsPublished, 1, tag)
		p.update(func(s *Stats) { s.PublishedCount++ })
	}
	return nil
}

// Cleanup deletes published messages older than Retention.
func (p *Processor) Cleanup(ctx context.Context) (int64, error) {
	n, err := p.repo.DeleteOld(ctx, p.clock().Add(-p.config.Retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.logger.Info("outbox pruned", "deleted", n)
	}
	return n, nil
}

func (p *Processor) retryOrBury(ctx context.Context, msg *Message, env eventbus.Envelope, cause error) {
	now := p.clock()
	attempt := msg.RetryCount + 1
	dead := attempt >= p.config.MaxRetries

	p.logger.Warn("publish failed",
		"id", msg.ID,
		"routing_key", env.RoutingKey,
		"message_id", env.MessageID,
		"correlation_id", env.CorrelationID,
		"actor", env.Actor,
		"attempt", attempt,
		"dead", dead,
		"error", cause,
	)
	p.fail(cause, now)

	var err error
	if dead {
		p.update(func(s *Stats) { s.DeadCount++ })
		err = p.repo.MarkDead(ctx, msg.ID, cause.Error(), now)
	} else {
		p.update(func(s *Stats) { s.FailedCount++ })
		err = p.repo.MarkFailed(ctx, msg.ID, cause.Error(), now.Add(p.config.backoff(attempt)))
	}
	if err != nil {
		p.logger.Error("could not record publish failure", "id", msg.ID, "error", err)
	}
}

// GetStats returns a snapshot of the processor's counters.
func (p *Processor) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Processor) update(fn func(*Stats)) {
	p.mu.Lock()
	fn(&p.stats)
	p.mu.Unlock()
}

func (p *Processor) fail(err error, at time.Time) {
	p.update(func(s *Stats) {
		s.LastError = err.Error()
		s.LastErrorAt = &at
	})
}

// observeLag records how long the oldest waiting message has waited.
func (p *Processor) observeLag(now time.Time, batch []*Message) {
	lag := 0.0
	for _, msg := range batch {
		lag = max(lag, now.Sub(msg.CreatedAt).Seconds())
	}
	p.metrics.Gauge(observability.MetricOutboxLag, lag)
	p.update(func(s *Stats) {
		s.LastProcessedAt = &now
		s.LagSeconds = lag
	})
}
