package application

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/beaver/pkg/observability"
	"github.com/google/uuid"
)

// NewEventMetadata describes one command run by actor. The correlation ID is
// the request's when it is a UUID, so API and CLI logs join up with events.
func NewEventMetadata(ctx context.Context, actor domain.Address) domain.EventMetadata {
	correlation, err := uuid.Parse(observability.CorrelationIDFromContext(ctx))
	if err != nil {
		correlation = uuid.New()
	}
	return domain.EventMetadata{
		CorrelationID: correlation,
		CausationID:   uuid.New(),
		Actor:         actor,
	}
}

// ApplyEventMetadata stamps metadata on every event that accepts it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if e, ok := event.(interface{ SetMetadata(domain.EventMetadata) }); ok {
			e.SetMetadata(metadata)
		}
	}
}

// RecordEvents stamps the pending events of each aggregate with one command's
// metadata and stores them in the outbox within the transaction in ctx.
// Events stay pending if the outbox write fails.
func RecordEvents(ctx context.Context, repo outbox.Repository, actor domain.Address, aggregates ...domain.AggregateRoot) error {
	var events []domain.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.DomainEvents()...)
	}
	if len(events) == 0 {
		return nil
	}
	ApplyEventMetadata(events, NewEventMetadata(ctx, actor))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := repo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	for _, agg := range aggregates {
		agg.PullDomainEvents()
	}
	return nil
}
