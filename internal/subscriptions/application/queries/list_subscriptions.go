package queries

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
)

// ListSubscriptionsQuery lists a subscriber's subscriptions.
type ListSubscriptionsQuery struct {
	Subscriber sharedDomain.Address
	ActiveOnly bool
}

// QueryName implements application.Query.
func (ListSubscriptionsQuery) QueryName() string { return "subscriptions.list" }

// ListSubscriptionsHandler handles the ListSubscriptionsQuery.
type ListSubscriptionsHandler struct {
	subscriptionRepo domain.Repository
}

// NewListSubscriptionsHandler creates a new ListSubscriptionsHandler.
func NewListSubscriptionsHandler(subscriptionRepo domain.Repository) *ListSubscriptionsHandler {
	return &ListSubscriptionsHandler{subscriptionRepo: subscriptionRepo}
}

// Handle executes the ListSubscriptionsQuery.
func (h *ListSubscriptionsHandler) Handle(ctx context.Context, q ListSubscriptionsQuery) ([]SubscriptionDTO, error) {
	subs, err := h.subscriptionRepo.FindBySubscriber(ctx, q.Subscriber)
	if err != nil {
		return nil, err
	}
	if q.ActiveOnly {
		active := subs[:0]
		for _, s := range subs {
			if s.IsActive() {
				active = append(active, s)
			}
		}
		subs = active
	}
	return toDTOs(subs), nil
}
