package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent_Header(t *testing.T) {
	key := domain.Keccak256([]byte("product"))
	start := time.Now().UTC()

	ev := domain.NewBaseEvent(key, "Product", "catalog.product.created")

	assert.NotEqual(t, uuid.Nil, ev.EventID())
	assert.Equal(t, key.String(), ev.AggregateID())
	assert.Equal(t, "Product", ev.AggregateType())
	assert.Equal(t, "catalog.product.created", ev.RoutingKey())
	assert.WithinRange(t, ev.OccurredAt(), start, time.Now().UTC())
	assert.Equal(t, domain.EventMetadata{}, ev.Metadata())
}

func TestBaseEvent_SetMetadataThroughInterface(t *testing.T) {
	meta := domain.EventMetadata{
		CorrelationID: uuid.New(),
		CausationID:   uuid.New(),
		Actor:         domain.MustParseAddress("0x00000000000000000000000000000000000000aa"),
	}
	base := domain.NewBaseEvent(domain.ZeroHash, "Subscription", "subscriptions.subscription.started")
	base.SetMetadata(meta)

	var ev domain.DomainEvent = base
	require.NotNil(t, ev)
	assert.Equal(t, meta, ev.Metadata())
}

func TestNewBaseEvent_IDsDiffer(t *testing.T) {
	seen := make(map[uuid.UUID]bool)
	for range 16 {
		id := domain.NewBaseEvent(domain.ZeroHash, "Payment", "payments.payment.collected").EventID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
