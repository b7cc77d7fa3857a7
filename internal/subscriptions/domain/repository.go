package domain

import (
	"context"
	"fmt"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// ErrStaleSubscription is returned by Save when the stored version moved on
// since the subscription was loaded.
var ErrStaleSubscription = fmt.Errorf("%w: subscription was modified concurrently", sharedDomain.ErrInconsistentState)

// Repository defines the interface for subscription persistence.
type Repository interface {
	// Save inserts or updates a subscription, checking StoredVersion.
	Save(ctx context.Context, subscription *Subscription) error

	// FindByHash returns the subscription with hash, or nil. Inside a
	// transaction the row is locked until commit.
	FindByHash(ctx context.Context, hash sharedDomain.Hash) (*Subscription, error)

	// FindBySubscriber returns a subscriber's subscriptions, oldest first.
	FindBySubscriber(ctx context.Context, subscriber sharedDomain.Address) ([]*Subscription, error)

	// FindDue returns active subscriptions whose pending charge is
	// collectible at now, earliest first. Charges past their payment window
	// are left out. A zero initiator matches every initiator.
	FindDue(ctx context.Context, initiator sharedDomain.Address, now sharedDomain.Timestamp, limit int) ([]*Subscription, error)
}
