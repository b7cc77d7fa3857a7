package queries

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
)

// GetSubscriptionQuery looks a subscription up by hash.
type GetSubscriptionQuery struct {
	SubscriptionHash sharedDomain.Hash
}

// QueryName implements application.Query.
func (GetSubscriptionQuery) QueryName() string { return "subscriptions.get" }

// GetSubscriptionHandler handles the GetSubscriptionQuery.
type GetSubscriptionHandler struct {
	subscriptionRepo domain.Repository
}

// NewGetSubscriptionHandler creates a new GetSubscriptionHandler.
func NewGetSubscriptionHandler(subscriptionRepo domain.Repository) *GetSubscriptionHandler {
	return &GetSubscriptionHandler{subscriptionRepo: subscriptionRepo}
}

// Handle executes the GetSubscriptionQuery.
func (h *GetSubscriptionHandler) Handle(ctx context.Context, q GetSubscriptionQuery) (*SubscriptionDTO, error) {
	s, err := h.subscriptionRepo.FindByHash(ctx, q.SubscriptionHash)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	dto := ToSubscriptionDTO(s)
	return &dto, nil
}
