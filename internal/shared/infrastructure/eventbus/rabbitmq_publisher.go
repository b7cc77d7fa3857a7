package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the durable topic exchange router events go to. Routing
// keys are <context>.<aggregate>.<event>, e.g. payments.payment.collected.
const ExchangeName = "beaver.router.events"

// ErrPublishNacked means the broker refused to take responsibility for a message.
var ErrPublishNacked = errors.New("rabbitmq: publish not confirmed")

// RabbitMQPublisher publishes persistent messages in confirm mode: Publish
// returns only after the broker has acked the message.
type RabbitMQPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// NewRabbitMQPublisher dials url, declares ExchangeName and enables
// publisher confirms.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.DialConfig(url, amqp.Config{Properties: amqp.Table{"connection_name": "beaver-outbox"}})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := setupChannel(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Info("rabbitmq publisher connected", "exchange", ExchangeName)
	return &RabbitMQPublisher{conn: conn, channel: ch, logger: logger}, nil
}

func setupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", ExchangeName, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	return ch, nil
}

func publishing(env Envelope) amqp.Publishing {
	headers := amqp.Table{}
	if env.Actor != "" {
		headers["actor"] = env.Actor
	}
	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.MessageID,
		CorrelationId: env.CorrelationID,
		Timestamp:     env.OccurredAt.UTC(),
		Type:          env.RoutingKey,
		AppId:         "beaver",
		Headers:       headers,
		Body:          env.Payload,
	}
}

// Publish blocks until the broker confirms the message or ctx ends. A closed
// channel is reopened once per call.
func (p *RabbitMQPublisher) Publish(ctx context.Context, env Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		if p.conn == nil || p.conn.IsClosed() {
			return errors.New("rabbitmq: connection closed")
		}
		ch, err := setupChannel(p.conn)
		if err != nil {
			return err
		}
		p.channel = ch
	}

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, env.RoutingKey, false, false, publishing(env))
	if err != nil {
		return fmt.Errorf("publish %s: %w", env.RoutingKey, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return fmt.Errorf("%w: %s", ErrPublishNacked, env.MessageID)
	}
	p.logger.DebugContext(ctx, "event published", "routing_key", env.RoutingKey, "message_id", env.MessageID)
	return nil
}

// Healthy reports whether the broker connection is open.
func (p *RabbitMQPublisher) Healthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil && !p.conn.IsClosed()
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.channel != nil && !p.channel.IsClosed() {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

var _ Publisher = (*RabbitMQPublisher)(nil)
