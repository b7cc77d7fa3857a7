// Package domain holds the subscription ledger: per-subscriber billing records
// addressed by the hash of product, subscriber and metadata.
package domain

import (
	"fmt"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive     Status = "active"
	StatusTerminated Status = "terminated"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusTerminated
}

var (
	ErrSubscriptionNotFound = fmt.Errorf("subscription %w", sharedDomain.ErrNotFound)
	ErrNotSubscriber        = fmt.Errorf("%w: caller is not the subscriber", sharedDomain.ErrUnauthorized)
	ErrNotInitiator         = fmt.Errorf("%w: caller is not the initiator", sharedDomain.ErrUnauthorized)
	ErrInitiatorMismatch    = fmt.Errorf("%w: initiator does not match", sharedDomain.ErrUnauthorized)
	ErrNotParty             = fmt.Errorf("%w: caller is neither subscriber nor initiator", sharedDomain.ErrUnauthorized)
	ErrTerminated           = fmt.Errorf("subscription %w", sharedDomain.ErrAlreadyTerminated)
	ErrZeroSubscriber       = fmt.Errorf("%w: subscriber must be a non-zero address", sharedDomain.ErrInvalidParameters)
	ErrZeroInitiator        = fmt.Errorf("%w: initiator must be a non-zero address", sharedDomain.ErrInvalidParameters)
	ErrCursorOverflow       = fmt.Errorf("%w: charge cursor overflow", sharedDomain.ErrInvalidParameters)
)

// Subscription binds a subscriber to a product and tracks its billing cursor.
type Subscription struct {
	sharedDomain.BaseAggregateRoot
	hash          sharedDomain.Hash
	productHash   sharedDomain.Hash
	subscriber    sharedDomain.Address
	initiator     sharedDomain.Address
	metadataHash  sharedDomain.Hash
	nextChargeAt  sharedDomain.Timestamp
	grace         uint64
	status        Status
	createdAt     sharedDomain.Timestamp
	updatedAt     sharedDomain.Timestamp
	storedVersion int
}

// NewSubscription opens an active subscription whose first charge falls due
// after the free trial. grace is the product's payment window, copied here
// since products never change.
func NewSubscription(
	productHash sharedDomain.Hash,
	subscriber sharedDomain.Address,
	initiator sharedDomain.Address,
	metadataHash sharedDomain.Hash,
	freeTrial uint64,
	grace uint64,
	now sharedDomain.Timestamp,
) (*Subscription, error) {
	if subscriber.IsZero() {
		return nil, ErrZeroSubscriber
	}
	if initiator.IsZero() {
		return nil, ErrZeroInitiator
	}
	firstCharge, ok := now.Add(freeTrial)
	if !ok {
		return nil, ErrCursorOverflow
	}

	s := &Subscription{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		hash:              sharedDomain.SubscriptionHash(productHash, subscriber, metadataHash),
		productHash:       productHash,
		subscriber:        subscriber,
		initiator:         initiator,
		metadataHash:      metadataHash,
		nextChargeAt:      firstCharge,
		grace:             grace,
		status:            StatusActive,
		createdAt:         now,
		updatedAt:         now,
	}
	s.IncrementVersion()
	s.AddDomainEvent(NewSubscriptionStarted(s))
	return s, nil
}

// RehydrateSubscription recreates a subscription from persisted state without generating events.
func RehydrateSubscription(
	productHash sharedDomain.Hash,
	subscriber sharedDomain.Address,
	initiator sharedDomain.Address,
	metadataHash sharedDomain.Hash,
	nextChargeAt sharedDomain.Timestamp,
	grace uint64,
	status Status,
	createdAt sharedDomain.Timestamp,
	updatedAt sharedDomain.Timestamp,
	version int,
) *Subscription {
	return &Subscription{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(version),
		hash:              sharedDomain.SubscriptionHash(productHash, subscriber, metadataHash),
		productHash:       productHash,
		subscriber:        subscriber,
		initiator:         initiator,
		metadataHash:      metadataHash,
		nextChargeAt:      nextChargeAt,
		grace:             grace,
		status:            status,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
		storedVersion:     version,
	}
}

// Key implements sharedDomain.AggregateRoot.
func (s *Subscription) Key() sharedDomain.Hash { return s.hash }

func (s *Subscription) Hash() sharedDomain.Hash              { return s.hash }
func (s *Subscription) ProductHash() sharedDomain.Hash       { return s.productHash }
func (s *Subscription) Subscriber() sharedDomain.Address     { return s.subscriber }
func (s *Subscription) Initiator() sharedDomain.Address      { return s.initiator }
func (s *Subscription) MetadataHash() sharedDomain.Hash      { return s.metadataHash }
func (s *Subscription) NextChargeAt() sharedDomain.Timestamp { return s.nextChargeAt }
func (s *Subscription) Grace() uint64                        { return s.grace }
func (s *Subscription) Status() Status                       { return s.status }
func (s *Subscription) IsActive() bool                       { return s.status == StatusActive }
func (s *Subscription) CreatedAt() sharedDomain.Timestamp    { return s.createdAt }
func (s *Subscription) UpdatedAt() sharedDomain.Timestamp    { return s.updatedAt }

// StoredVersion is the version the subscription had when it was loaded, zero
// for a subscription that was never persisted.
func (s *Subscription) StoredVersion() int { return s.storedVersion }

// ChangeInitiator reassigns the initiator. Only the subscriber may do so, and
// only while oldInitiator is the current initiator.
func (s *Subscription) ChangeInitiator(caller, oldInitiator, newInitiator sharedDomain.Address, now sharedDomain.Timestamp) error {
	if caller != s.subscriber {
		return ErrNotSubscriber
	}
	if oldInitiator != s.initiator {
		return ErrInitiatorMismatch
	}
	if !s.IsActive() {
		return ErrTerminated
	}
	if newInitiator.IsZero() {
		return ErrZeroInitiator
	}
	if newInitiator == s.initiator {
		return nil
	}

	s.initiator = newInitiator
	s.touch(now)
	s.AddDomainEvent(NewInitiatorChanged(s, oldInitiator))
	return nil
}

// Terminate ends the subscription. The subscriber or the current initiator may
// terminate; terminating twice is a no-op and reports false.
func (s *Subscription) Terminate(caller sharedDomain.Address, now sharedDomain.Timestamp) (bool, error) {
	if caller != s.subscriber && caller != s.initiator {
		return false, ErrNotParty
	}
	if !s.IsActive() {
		return false, nil
	}

	s.status = StatusTerminated
	s.touch(now)
	s.AddDomainEvent(NewSubscriptionTerminated(s, caller))
	return true, nil
}

// CollectibleUntil is the last second the pending charge can be collected.
func (s *Subscription) CollectibleUntil() sharedDomain.Timestamp {
	return s.nextChargeAt.AddSaturating(s.grace)
}

// IsCollectible reports whether the pending charge is inside its payment
// window at now.
func (s *Subscription) IsCollectible(now sharedDomain.Timestamp) bool {
	return s.IsActive() && s.nextChargeAt <= now && now <= s.CollectibleUntil()
}

// CheckPayable verifies that caller may collect the charge due at
// nextChargeAt at time now. The charge is collectible from nextChargeAt
// through nextChargeAt+grace inclusive.
func (s *Subscription) CheckPayable(caller sharedDomain.Address, now sharedDomain.Timestamp) error {
	if caller != s.initiator {
		return ErrNotInitiator
	}
	if !s.IsActive() {
		return ErrTerminated
	}
	if now < s.nextChargeAt {
		return fmt.Errorf("%w: next charge at %d, now %d", sharedDomain.ErrNotDue, s.nextChargeAt, now)
	}
	if now > s.CollectibleUntil() {
		return fmt.Errorf("%w: charge due at %d lapsed after %d seconds", sharedDomain.ErrExpired, s.nextChargeAt, s.grace)
	}
	return nil
}

// AdvanceCharge moves the billing cursor forward by exactly one period.
func (s *Subscription) AdvanceCharge(period uint64, now sharedDomain.Timestamp) error {
	next, ok := s.nextChargeAt.Add(period)
	if !ok || period == 0 {
		return ErrCursorOverflow
	}
	s.nextChargeAt = next
	s.touch(now)
	return nil
}

func (s *Subscription) touch(now sharedDomain.Timestamp) {
	s.updatedAt = now
	s.IncrementVersion()
}
