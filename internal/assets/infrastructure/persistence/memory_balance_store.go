package persistence

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/assets/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
)

const (
	balancesTable   = "token_balances"
	allowancesTable = "token_allowances"
)

// MemoryBalanceStore keeps balances and allowances in a memstore.Store.
type MemoryBalanceStore struct {
	store *memstore.Store
}

// NewMemoryBalanceStore creates a balance store backed by store.
func NewMemoryBalanceStore(store *memstore.Store) *MemoryBalanceStore {
	return &MemoryBalanceStore{store: store}
}

func balanceKey(token, account sharedDomain.Address) string {
	return token.String() + "|" + account.String()
}

func allowanceKey(token, owner, spender sharedDomain.Address) string {
	return token.String() + "|" + owner.String() + "|" + spender.String()
}

// Balance returns the stored balance, zero when absent.
func (s *MemoryBalanceStore) Balance(ctx context.Context, token, account sharedDomain.Address) (sharedDomain.Amount, error) {
	return s.get(ctx, balancesTable, balanceKey(token, account))
}

// SetBalance stores a balance.
func (s *MemoryBalanceStore) SetBalance(ctx context.Context, token, account sharedDomain.Address, amount sharedDomain.Amount) error {
	return s.store.Do(ctx, func(tx *memstore.Tx) error {
		return tx.Put(balancesTable, balanceKey(token, account), amount)
	})
}

// Allowance returns the stored allowance, zero when absent.
func (s *MemoryBalanceStore) Allowance(ctx context.Context, token, owner, spender sharedDomain.Address) (sharedDomain.Amount, error) {
	return s.get(ctx, allowancesTable, allowanceKey(token, owner, spender))
}

// SetAllowance stores an allowance.
func (s *MemoryBalanceStore) SetAllowance(ctx context.Context, token, owner, spender sharedDomain.Address, amount sharedDomain.Amount) error {
	return s.store.Do(ctx, func(tx *memstore.Tx) error {
		return tx.Put(allowancesTable, allowanceKey(token, owner, spender), amount)
	})
}

func (s *MemoryBalanceStore) get(ctx context.Context, table, key string) (sharedDomain.Amount, error) {
	amount := sharedDomain.ZeroAmount
	err := s.store.Do(ctx, func(tx *memstore.Tx) error {
		if v, ok := tx.Get(table, key); ok {
			amount = v.(sharedDomain.Amount)
		}
		return nil
	})
	return amount, err
}

var _ domain.BalanceStore = (*MemoryBalanceStore)(nil)
