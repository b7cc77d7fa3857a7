package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/beaver/internal/payments/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
)

// SQLPaymentRepository implements domain.Repository for SQLite and PostgreSQL.
type SQLPaymentRepository struct {
	conn database.Connection
}

// NewSQLPaymentRepository creates a new SQL payment repository.
func NewSQLPaymentRepository(conn database.Connection) *SQLPaymentRepository {
	return &SQLPaymentRepository{conn: conn}
}

func (r *SQLPaymentRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

const paymentColumns = `subscription_hash, due_at, initiator, merchant, token, amount, merchant_amount, compensation, protocol_fee, paid_at`

// Save inserts a receipt.
func (r *SQLPaymentRepository) Save(ctx context.Context, p *domain.Payment) error {
	dueAt, err := convert.Uint64ToInt64(uint64(p.DueAt()))
	if err != nil {
		return fmt.Errorf("%w: due at: %v", sharedDomain.ErrInvalidParameters, err)
	}
	paidAt, err := convert.Uint64ToInt64(uint64(p.PaidAt()))
	if err != nil {
		return fmt.Errorf("%w: paid at: %v", sharedDomain.ErrInvalidParameters, err)
	}
	split := p.Split()
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, r.q(`
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (subscription_hash, due_at) DO NOTHING
	`),
		p.SubscriptionHash().String(),
		dueAt,
		p.Initiator().String(),
		p.Merchant().String(),
		p.Token().String(),
		split.Amount.String(),
		split.MerchantAmount.String(),
		split.Compensation.String(),
		split.ProtocolFee.String(),
		paidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDuplicatePayment
	}
	return nil
}

// FindBySubscription returns the receipts of a subscription, oldest cycle first.
func (r *SQLPaymentRepository) FindBySubscription(ctx context.Context, subscriptionHash sharedDomain.Hash) ([]*domain.Payment, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		r.q(`SELECT `+paymentColumns+` FROM payments WHERE subscription_hash = ? ORDER BY due_at`),
		subscriptionHash.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row database.Row) (*domain.Payment, error) {
	var (
		subscriptionHash, initiator, merchant, token      string
		amount, merchantAmount, compensation, protocolFee string
		dueAt, paidAt                                     int64
	)
	if err := row.Scan(&subscriptionHash, &dueAt, &initiator, &merchant, &token,
		&amount, &merchantAmount, &compensation, &protocolFee, &paidAt); err != nil {
		return nil, err
	}

	sub, err := sharedDomain.ParseHash(subscriptionHash)
	if err != nil {
		return nil, err
	}
	initiatorAddr, err := sharedDomain.ParseAddress(initiator)
	if err != nil {
		return nil, err
	}
	merchantAddr, err := sharedDomain.ParseAddress(merchant)
	if err != nil {
		return nil, err
	}
	tokenAddr, err := sharedDomain.ParseAddress(token)
	if err != nil {
		return nil, err
	}

	var split domain.Split
	for _, f := range []struct {
		dst *sharedDomain.Amount
		src string
	}{
		{&split.Amount, amount},
		{&split.MerchantAmount, merchantAmount},
		{&split.Compensation, compensation},
		{&split.ProtocolFee, protocolFee},
	} {
		if *f.dst, err = sharedDomain.ParseAmount(f.src); err != nil {
			return nil, err
		}
	}

	due, err := convert.Int64ToUint64(dueAt)
	if err != nil {
		return nil, err
	}
	paid, err := convert.Int64ToUint64(paidAt)
	if err != nil {
		return nil, err
	}
	return domain.RehydratePayment(
		sub, sharedDomain.Timestamp(due), initiatorAddr, merchantAddr, tokenAddr,
		split, sharedDomain.Timestamp(paid),
	), nil
}

var _ domain.Repository = (*SQLPaymentRepository)(nil)
