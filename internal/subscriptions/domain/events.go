package domain

import (
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

const aggregateType = "Subscription"

// SubscriptionStarted is emitted when a subscription is opened.
type SubscriptionStarted struct {
	sharedDomain.BaseEvent
	SubscriptionHash sharedDomain.Hash      `json:"subscription_hash"`
	ProductHash      sharedDomain.Hash      `json:"product_hash"`
	Subscriber       sharedDomain.Address   `json:"subscriber"`
	Initiator        sharedDomain.Address   `json:"initiator"`
	MetadataHash     sharedDomain.Hash      `json:"metadata_hash"`
	NextChargeAt     sharedDomain.Timestamp `json:"next_charge_at"`
}

// NewSubscriptionStarted creates a SubscriptionStarted event.
func NewSubscriptionStarted(s *Subscription) *SubscriptionStarted {
	return &SubscriptionStarted{
		BaseEvent:        sharedDomain.NewBaseEvent(s.Hash(), aggregateType, "subscriptions.subscription.started"),
		SubscriptionHash: s.Hash(),
		ProductHash:      s.ProductHash(),
		Subscriber:       s.Subscriber(),
		Initiator:        s.Initiator(),
		MetadataHash:     s.MetadataHash(),
		NextChargeAt:     s.NextChargeAt(),
	}
}

// InitiatorChanged is emitted when the subscriber hands billing to a new initiator.
type InitiatorChanged struct {
	sharedDomain.BaseEvent
	SubscriptionHash sharedDomain.Hash    `json:"subscription_hash"`
	OldInitiator     sharedDomain.Address `json:"old_initiator"`
	NewInitiator     sharedDomain.Address `json:"new_initiator"`
}

// NewInitiatorChanged creates an InitiatorChanged event.
func NewInitiatorChanged(s *Subscription, old sharedDomain.Address) *InitiatorChanged {
	return &InitiatorChanged{
		BaseEvent:        sharedDomain.NewBaseEvent(s.Hash(), aggregateType, "subscriptions.initiator.changed"),
		SubscriptionHash: s.Hash(),
		OldInitiator:     old,
		NewInitiator:     s.Initiator(),
	}
}

// SubscriptionTerminated is emitted when a subscription ends.
type SubscriptionTerminated struct {
	sharedDomain.BaseEvent
	SubscriptionHash sharedDomain.Hash      `json:"subscription_hash"`
	TerminatedBy     sharedDomain.Address   `json:"terminated_by"`
	TerminatedAt     sharedDomain.Timestamp `json:"terminated_at"`
}

// NewSubscriptionTerminated creates a SubscriptionTerminated event.
func NewSubscriptionTerminated(s *Subscription, by sharedDomain.Address) *SubscriptionTerminated {
	return &SubscriptionTerminated{
		BaseEvent:        sharedDomain.NewBaseEvent(s.Hash(), aggregateType, "subscriptions.subscription.terminated"),
		SubscriptionHash: s.Hash(),
		TerminatedBy:     by,
		TerminatedAt:     s.UpdatedAt(),
	}
}
