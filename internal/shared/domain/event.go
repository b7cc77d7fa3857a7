package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate. The outbox stores the
// concrete event as JSON and the bus routes it by RoutingKey.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() string
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata ties an event to the request that produced it.
type EventMetadata struct {
	CorrelationID uuid.UUID
	CausationID   uuid.UUID
	Actor         Address
}

// BaseEvent is embedded by concrete events. The aggregate ID is the hex
// form of the aggregate's key.
type BaseEvent struct {
	id         uuid.UUID
	key        string
	kind       string
	routingKey string
	at         time.Time
	meta       EventMetadata
}

// NewBaseEvent stamps a fresh event ID and the current wall-clock time.
func NewBaseEvent(key Hash, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{
		id:         uuid.New(),
		key:        key.String(),
		kind:       aggregateType,
		routingKey: routingKey,
		at:         time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.id }
func (e BaseEvent) AggregateID() string     { return e.key }
func (e BaseEvent) AggregateType() string   { return e.kind }
func (e BaseEvent) RoutingKey() string      { return e.routingKey }
func (e BaseEvent) OccurredAt() time.Time   { return e.at }
func (e BaseEvent) Metadata() EventMetadata { return e.meta }

// SetMetadata attaches request metadata; it is applied after the aggregate
// records the event.
func (e *BaseEvent) SetMetadata(meta EventMetadata) { e.meta = meta }
