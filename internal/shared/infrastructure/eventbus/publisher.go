// Package eventbus delivers outbox messages to the broker.
package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Envelope is one event on the wire. Delivery is at least once, so consumers
// dedupe on MessageID, the event's ID.
type Envelope struct {
	RoutingKey    string
	MessageID     string
	CorrelationID string
	Actor         string
	OccurredAt    time.Time
	Payload       []byte
}

// Publisher sends envelopes to a broker.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// NoopPublisher logs and drops envelopes. It stands in when no broker is
// configured, so the outbox still drains.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(ctx context.Context, env Envelope) error {
	p.logger.DebugContext(ctx, "event dropped, no broker configured",
		"routing_key", env.RoutingKey, "message_id", env.MessageID)
	return nil
}

func (p *NoopPublisher) Close() error { return nil }

// RecordingPublisher keeps every envelope in memory.
type RecordingPublisher struct {
	mu        sync.Mutex
	envelopes []Envelope
}

func (p *RecordingPublisher) Publish(_ context.Context, env Envelope) error {
	env.Payload = append([]byte(nil), env.Payload...)
	p.mu.Lock()
	p.envelopes = append(p.envelopes, env)
	p.mu.Unlock()
	return nil
}

// Messages returns a copy of everything published so far.
func (p *RecordingPublisher) Messages() []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Envelope(nil), p.envelopes...)
}

func (p *RecordingPublisher) Close() error { return nil }

var (
	_ Publisher = (*NoopPublisher)(nil)
	_ Publisher = (*RecordingPublisher)(nil)
)
