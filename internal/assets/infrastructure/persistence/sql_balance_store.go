package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/beaver/internal/assets/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
)

// SQLBalanceStore keeps balances and allowances in the token_balances and
// token_allowances tables. Amounts are stored as decimal text.
type SQLBalanceStore struct {
	conn database.Connection
}

// NewSQLBalanceStore creates a SQL balance store.
func NewSQLBalanceStore(conn database.Connection) *SQLBalanceStore {
	return &SQLBalanceStore{conn: conn}
}

func (s *SQLBalanceStore) q(query string) string {
	return database.Rebind(s.conn.Driver(), query)
}

// lock returns the row lock suffix when ctx carries a transaction.
func (s *SQLBalanceStore) lock(ctx context.Context) string {
	if _, ok := database.TxInfoFromContext(ctx); ok {
		return database.LockClause(s.conn.Driver())
	}
	return ""
}

// claim inserts a zero row when ctx carries a transaction, so the locking
// read that follows has a row to lock even for an account never credited.
// Without it two first credits both read zero and the later write wins.
func (s *SQLBalanceStore) claim(ctx context.Context, query string, args ...any) error {
	if _, ok := database.TxInfoFromContext(ctx); !ok {
		return nil
	}
	if _, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, s.q(query), args...); err != nil {
		return fmt.Errorf("failed to claim row: %w", err)
	}
	return nil
}

// Balance returns the stored balance, zero when absent. Inside a transaction
// the row is locked until commit.
func (s *SQLBalanceStore) Balance(ctx context.Context, token, account sharedDomain.Address) (sharedDomain.Amount, error) {
	if err := s.claim(ctx, `
		INSERT INTO token_balances (token, account, balance) VALUES (?, ?, '0')
		ON CONFLICT (token, account) DO NOTHING
	`, token.String(), account.String()); err != nil {
		return sharedDomain.ZeroAmount, err
	}

	var raw string
	err := database.ExecutorFromContext(ctx, s.conn).QueryRow(ctx,
		s.q(`SELECT balance FROM token_balances WHERE token = ? AND account = ?`)+s.lock(ctx),
		token.String(), account.String(),
	).Scan(&raw)
	return scanAmount(raw, err)
}

// SetBalance upserts a balance.
func (s *SQLBalanceStore) SetBalance(ctx context.Context, token, account sharedDomain.Address, amount sharedDomain.Amount) error {
	_, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, s.q(`
		INSERT INTO token_balances (token, account, balance) VALUES (?, ?, ?)
		ON CONFLICT (token, account) DO UPDATE SET balance = excluded.balance
	`), token.String(), account.String(), amount.String())
	if err != nil {
		return fmt.Errorf("failed to store balance: %w", err)
	}
	return nil
}

// Allowance returns the stored allowance, zero when absent. Inside a
// transaction the row is locked until commit.
func (s *SQLBalanceStore) Allowance(ctx context.Context, token, owner, spender sharedDomain.Address) (sharedDomain.Amount, error) {
	if err := s.claim(ctx, `
		INSERT INTO token_allowances (token, owner, spender, allowance) VALUES (?, ?, ?, '0')
		ON CONFLICT (token, owner, spender) DO NOTHING
	`, token.String(), owner.String(), spender.String()); err != nil {
		return sharedDomain.ZeroAmount, err
	}

	var raw string
	err := database.ExecutorFromContext(ctx, s.conn).QueryRow(ctx,
		s.q(`SELECT allowance FROM token_allowances WHERE token = ? AND owner = ? AND spender = ?`)+s.lock(ctx),
		token.String(), owner.String(), spender.String(),
	).Scan(&raw)
	return scanAmount(raw, err)
}

// SetAllowance upserts an allowance.
func (s *SQLBalanceStore) SetAllowance(ctx context.Context, token, owner, spender sharedDomain.Address, amount sharedDomain.Amount) error {
	_, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, s.q(`
		INSERT INTO token_allowances (token, owner, spender, allowance) VALUES (?, ?, ?, ?)
		ON CONFLICT (token, owner, spender) DO UPDATE SET allowance = excluded.allowance
	`), token.String(), owner.String(), spender.String(), amount.String())
	if err != nil {
		return fmt.Errorf("failed to store allowance: %w", err)
	}
	return nil
}

func scanAmount(raw string, err error) (sharedDomain.Amount, error) {
	if database.IsNoRows(err) {
		return sharedDomain.ZeroAmount, nil
	}
	if err != nil {
		return sharedDomain.ZeroAmount, fmt.Errorf("failed to read amount: %w", err)
	}
	return sharedDomain.ParseAmount(raw)
}

var _ domain.BalanceStore = (*SQLBalanceStore)(nil)
