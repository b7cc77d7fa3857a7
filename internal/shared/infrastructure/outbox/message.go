package outbox

import (
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Message is a router event stored in the transaction that produced it. The
// processor publishes it later, retrying with backoff until MaxRetries.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      string
	RoutingKey       string
	Payload          json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage encodes event and its metadata as JSON.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// NewMessages converts a batch of events, failing on the first that cannot be encoded.
func NewMessages(events []domain.DomainEvent) ([]*Message, error) {
	msgs := make([]*Message, 0, len(events))
	for _, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// IsPublished reports whether the broker has confirmed the message.
func (m *Message) IsPublished() bool { return m.PublishedAt != nil }

// IsDead reports whether the message ran out of retries.
func (m *Message) IsDead() bool { return m.DeadLetteredAt != nil }

// Ready reports whether the message should be published at now.
func (m *Message) Ready(now time.Time) bool {
	if m.IsPublished() || m.IsDead() {
		return false
	}
	return m.NextRetryAt == nil || !m.NextRetryAt.After(now)
}

// Envelope is the message as the broker sees it. Metadata that does not
// decode leaves correlation and actor empty.
func (m *Message) Envelope() eventbus.Envelope {
	env := eventbus.Envelope{
		RoutingKey: m.RoutingKey,
		MessageID:  m.EventID.String(),
		OccurredAt: m.CreatedAt,
		Payload:    m.Payload,
	}
	var meta domain.EventMetadata
	if len(m.Metadata) > 0 && json.Unmarshal(m.Metadata, &meta) == nil {
		if meta.CorrelationID != uuid.Nil {
			env.CorrelationID = meta.CorrelationID.String()
		}
		if !meta.Actor.IsZero() {
			env.Actor = meta.Actor.String()
		}
	}
	return env
}
