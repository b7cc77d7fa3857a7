package queries

import (
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
)

// SubscriptionDTO is the read model of a subscription.
type SubscriptionDTO struct {
	SubscriptionHash sharedDomain.Hash      `json:"subscription_hash"`
	ProductHash      sharedDomain.Hash      `json:"product_hash"`
	Subscriber       sharedDomain.Address   `json:"subscriber"`
	Initiator        sharedDomain.Address   `json:"initiator"`
	MetadataHash     sharedDomain.Hash      `json:"subscription_metadata_hash"`
	NextChargeAt     sharedDomain.Timestamp `json:"next_charge_at"`
	CollectibleUntil sharedDomain.Timestamp `json:"collectible_until"`
	Status           string                 `json:"status"`
	CreatedAt        sharedDomain.Timestamp `json:"created_at"`
	UpdatedAt        sharedDomain.Timestamp `json:"updated_at"`
}

// ToSubscriptionDTO converts a subscription to its read model.
func ToSubscriptionDTO(s *domain.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		SubscriptionHash: s.Hash(),
		ProductHash:      s.ProductHash(),
		Subscriber:       s.Subscriber(),
		Initiator:        s.Initiator(),
		MetadataHash:     s.MetadataHash(),
		NextChargeAt:     s.NextChargeAt(),
		CollectibleUntil: s.CollectibleUntil(),
		Status:           string(s.Status()),
		CreatedAt:        s.CreatedAt(),
		UpdatedAt:        s.UpdatedAt(),
	}
}

func toDTOs(subs []*domain.Subscription) []SubscriptionDTO {
	dtos := make([]SubscriptionDTO, 0, len(subs))
	for _, s := range subs {
		dtos = append(dtos, ToSubscriptionDTO(s))
	}
	return dtos
}
