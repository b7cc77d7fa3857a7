package persistence

import (
	"context"
	"fmt"
	"math"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
)

// SQLSubscriptionRepository implements domain.Repository for SQLite and PostgreSQL.
type SQLSubscriptionRepository struct {
	conn database.Connection
}

// NewSQLSubscriptionRepository creates a new SQL subscription repository.
func NewSQLSubscriptionRepository(conn database.Connection) *SQLSubscriptionRepository {
	return &SQLSubscriptionRepository{conn: conn}
}

func (r *SQLSubscriptionRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

const subscriptionColumns = `product_hash, subscriber, initiator, metadata_hash, next_charge_at, grace, status, created_at, updated_at, version`

// Save inserts or updates a subscription. The update only applies while the
// stored version still equals the version the subscription was loaded at.
func (r *SQLSubscriptionRepository) Save(ctx context.Context, s *domain.Subscription) error {
	nextChargeAt, err := convert.Uint64ToInt64(uint64(s.NextChargeAt()))
	if err != nil {
		return fmt.Errorf("%w: next charge: %v", sharedDomain.ErrInvalidParameters, err)
	}
	// Windows beyond the int64 range never lapse within it either.
	grace := int64(math.MaxInt64)
	if s.Grace() < math.MaxInt64 {
		grace = int64(s.Grace())
	}
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, r.q(`
		INSERT INTO subscriptions (subscription_hash, `+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (subscription_hash) DO UPDATE SET
			initiator = excluded.initiator,
			next_charge_at = excluded.next_charge_at,
			status = excluded.status,
			updated_at = excluded.updated_at,
			version = excluded.version
		WHERE subscriptions.version = ?
	`),
		s.Hash().String(),
		s.ProductHash().String(),
		s.Subscriber().String(),
		s.Initiator().String(),
		s.MetadataHash().String(),
		nextChargeAt,
		grace,
		string(s.Status()),
		int64(s.CreatedAt()),
		int64(s.UpdatedAt()),
		s.Version(),
		s.StoredVersion(),
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrStaleSubscription
	}
	return nil
}

// FindByHash returns the subscription with hash, or nil. PostgreSQL locks the
// row for the rest of the transaction.
func (r *SQLSubscriptionRepository) FindByHash(ctx context.Context, hash sharedDomain.Hash) (*domain.Subscription, error) {
	lock := ""
	if _, ok := database.TxInfoFromContext(ctx); ok {
		lock = database.LockClause(r.conn.Driver())
	}
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		r.q(`SELECT `+subscriptionColumns+` FROM subscriptions WHERE subscription_hash = ?`)+lock, hash.String())
	s, err := scanSubscription(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	return s, err
}

// FindBySubscriber returns a subscriber's subscriptions, oldest first.
func (r *SQLSubscriptionRepository) FindBySubscriber(ctx context.Context, subscriber sharedDomain.Address) ([]*domain.Subscription, error) {
	return r.list(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE subscriber = ? ORDER BY created_at, subscription_hash`, subscriber.String())
}

// FindDue returns active subscriptions collectible at now, earliest first.
// next_charge_at <= now keeps now - next_charge_at non-negative, so the
// window check cannot overflow.
func (r *SQLSubscriptionRepository) FindDue(ctx context.Context, initiator sharedDomain.Address, now sharedDomain.Timestamp, limit int) ([]*domain.Subscription, error) {
	nowSec, err := convert.Uint64ToInt64(uint64(now))
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE status = ? AND next_charge_at <= ? AND grace >= ? - next_charge_at`
	args := []any{string(domain.StatusActive), nowSec, nowSec}
	if !initiator.IsZero() {
		query += ` AND initiator = ?`
		args = append(args, initiator.String())
	}
	query += ` ORDER BY next_charge_at, subscription_hash`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

func (r *SQLSubscriptionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Subscription, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func scanSubscription(row database.Row) (*domain.Subscription, error) {
	var (
		productHash, subscriber, initiator, metadataHash, status string
		nextChargeAt, grace, createdAt, updatedAt                int64
		version                                                  int
	)
	if err := row.Scan(&productHash, &subscriber, &initiator, &metadataHash, &nextChargeAt, &grace, &status, &createdAt, &updatedAt, &version); err != nil {
		return nil, err
	}

	product, err := sharedDomain.ParseHash(productHash)
	if err != nil {
		return nil, err
	}
	sub, err := sharedDomain.ParseAddress(subscriber)
	if err != nil {
		return nil, err
	}
	initiatorAddr, err := sharedDomain.ParseAddress(initiator)
	if err != nil {
		return nil, err
	}
	meta, err := sharedDomain.ParseHash(metadataHash)
	if err != nil {
		return nil, err
	}
	next, err := convert.Int64ToUint64(nextChargeAt)
	if err != nil {
		return nil, err
	}
	st := domain.Status(status)
	if !st.IsValid() {
		return nil, fmt.Errorf("%w: unknown subscription status %q", sharedDomain.ErrInconsistentState, status)
	}
	return domain.RehydrateSubscription(
		product, sub, initiatorAddr, meta,
		sharedDomain.Timestamp(next), uint64(timestamp(grace)), st,
		timestamp(createdAt), timestamp(updatedAt), version,
	), nil
}

func timestamp(sec int64) sharedDomain.Timestamp {
	if sec < 0 {
		return 0
	}
	return sharedDomain.Timestamp(sec)
}

var _ domain.Repository = (*SQLSubscriptionRepository)(nil)
