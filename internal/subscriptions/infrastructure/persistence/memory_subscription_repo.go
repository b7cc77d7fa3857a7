package persistence

import (
	"context"
	"sort"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
)

const subscriptionsTable = "subscriptions"

// MemorySubscriptionRepository implements domain.Repository on a memstore.Store.
type MemorySubscriptionRepository struct {
	store *memstore.Store
}

// NewMemorySubscriptionRepository creates a subscription repository backed by store.
func NewMemorySubscriptionRepository(store *memstore.Store) *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{store: store}
}

type storedSubscription struct {
	productHash  sharedDomain.Hash
	subscriber   sharedDomain.Address
	initiator    sharedDomain.Address
	metadataHash sharedDomain.Hash
	nextChargeAt sharedDomain.Timestamp
	grace        uint64
	status       domain.Status
	createdAt    sharedDomain.Timestamp
	updatedAt    sharedDomain.Timestamp
	version      int
}

// Save inserts or updates a subscription.
func (r *MemorySubscriptionRepository) Save(ctx context.Context, s *domain.Subscription) error {
	return r.store.Do(ctx, func(tx *memstore.Tx) error {
		key := s.Hash().String()
		current := 0
		if v, ok := tx.Get(subscriptionsTable, key); ok {
			current = v.(storedSubscription).version
		}
		if current != s.StoredVersion() {
			return domain.ErrStaleSubscription
		}
		return tx.Put(subscriptionsTable, key, storedSubscription{
			productHash:  s.ProductHash(),
			subscriber:   s.Subscriber(),
			initiator:    s.Initiator(),
			metadataHash: s.MetadataHash(),
			nextChargeAt: s.NextChargeAt(),
			grace:        s.Grace(),
			status:       s.Status(),
			createdAt:    s.CreatedAt(),
			updatedAt:    s.UpdatedAt(),
			version:      s.Version(),
		})
	})
}

// FindByHash returns the subscription with hash, or nil.
func (r *MemorySubscriptionRepository) FindByHash(ctx context.Context, hash sharedDomain.Hash) (*domain.Subscription, error) {
	var s *domain.Subscription
	err := r.store.Do(ctx, func(tx *memstore.Tx) error {
		if v, ok := tx.Get(subscriptionsTable, hash.String()); ok {
			s = v.(storedSubscription).toDomain()
		}
		return nil
	})
	return s, err
}

// FindBySubscriber returns a subscriber's subscriptions, oldest first.
func (r *MemorySubscriptionRepository) FindBySubscriber(ctx context.Context, subscriber sharedDomain.Address) ([]*domain.Subscription, error) {
	subs, err := r.filter(ctx, func(s storedSubscription) bool { return s.subscriber == subscriber })
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].CreatedAt() < subs[j].CreatedAt() })
	return subs, err
}

// FindDue returns active subscriptions collectible at now, earliest first.
func (r *MemorySubscriptionRepository) FindDue(ctx context.Context, initiator sharedDomain.Address, now sharedDomain.Timestamp, limit int) ([]*domain.Subscription, error) {
	subs, err := r.filter(ctx, func(s storedSubscription) bool {
		return s.status == domain.StatusActive &&
			s.nextChargeAt <= now &&
			now <= s.nextChargeAt.AddSaturating(s.grace) &&
			(initiator.IsZero() || s.initiator == initiator)
	})
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].NextChargeAt() < subs[j].NextChargeAt() })
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, err
}

func (r *MemorySubscriptionRepository) filter(ctx context.Context, keep func(storedSubscription) bool) ([]*domain.Subscription, error) {
	var subs []*domain.Subscription
	err := r.store.Do(ctx, func(tx *memstore.Tx) error {
		tx.Scan(subscriptionsTable, func(_ string, v any) bool {
			if s := v.(storedSubscription); keep(s) {
				subs = append(subs, s.toDomain())
			}
			return true
		})
		return nil
	})
	return subs, err
}

func (s storedSubscription) toDomain() *domain.Subscription {
	return domain.RehydrateSubscription(
		s.productHash, s.subscriber, s.initiator, s.metadataHash,
		s.nextChargeAt, s.grace, s.status, s.createdAt, s.updatedAt, s.version,
	)
}

var _ domain.Repository = (*MemorySubscriptionRepository)(nil)
