package queries

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
)

const defaultDueLimit = 100

// ListDueQuery lists active subscriptions whose charge is due. A zero
// Initiator matches all initiators; a zero At means now.
type ListDueQuery struct {
	Initiator sharedDomain.Address
	At        sharedDomain.Timestamp
	Limit     int
}

// QueryName implements application.Query.
func (ListDueQuery) QueryName() string { return "subscriptions.list_due" }

// ListDueHandler handles the ListDueQuery.
type ListDueHandler struct {
	subscriptionRepo domain.Repository
	clock            sharedDomain.Clock
}

// NewListDueHandler creates a new ListDueHandler.
func NewListDueHandler(subscriptionRepo domain.Repository, clock sharedDomain.Clock) *ListDueHandler {
	return &ListDueHandler{subscriptionRepo: subscriptionRepo, clock: clock}
}

// Handle executes the ListDueQuery.
func (h *ListDueHandler) Handle(ctx context.Context, q ListDueQuery) ([]SubscriptionDTO, error) {
	at := q.At
	if at == 0 {
		at = h.clock.Timestamp()
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultDueLimit
	}
	subs, err := h.subscriptionRepo.FindDue(ctx, q.Initiator, at, limit)
	if err != nil {
		return nil, err
	}
	return toDTOs(subs), nil
}
