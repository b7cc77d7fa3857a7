// Package domain models the external fungible-token ledger the router moves
// funds through. The ledger follows ERC-20 semantics: balances per token and
// account, and allowances an owner grants a spender.
package domain

import (
	"context"
	"fmt"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// Transfer failures. All of them wrap ErrTransferFailed.
var (
	ErrInsufficientBalance   = fmt.Errorf("%w: insufficient balance", sharedDomain.ErrTransferFailed)
	ErrInsufficientAllowance = fmt.Errorf("%w: insufficient allowance", sharedDomain.ErrTransferFailed)
	ErrTransferReverted      = fmt.Errorf("%w: transfer reverted", sharedDomain.ErrTransferFailed)
)

// TokenLedger is the asset ledger collaborator.
type TokenLedger interface {
	BalanceOf(ctx context.Context, token, account sharedDomain.Address) (sharedDomain.Amount, error)
	Allowance(ctx context.Context, token, owner, spender sharedDomain.Address) (sharedDomain.Amount, error)
	// Transfer moves amount out of from's own balance.
	Transfer(ctx context.Context, token, from, to sharedDomain.Address, amount sharedDomain.Amount) error
	// TransferFrom moves amount from owner to to, spending spender's allowance.
	TransferFrom(ctx context.Context, token, spender, owner, to sharedDomain.Address, amount sharedDomain.Amount) error
	Approve(ctx context.Context, token, owner, spender sharedDomain.Address, amount sharedDomain.Amount) error
	Mint(ctx context.Context, token, to sharedDomain.Address, amount sharedDomain.Amount) error
}

// BalanceStore persists raw balances and allowances. It carries no rules;
// Ledger enforces them.
type BalanceStore interface {
	Balance(ctx context.Context, token, account sharedDomain.Address) (sharedDomain.Amount, error)
	SetBalance(ctx context.Context, token, account sharedDomain.Address, amount sharedDomain.Amount) error
	Allowance(ctx context.Context, token, owner, spender sharedDomain.Address) (sharedDomain.Amount, error)
	SetAllowance(ctx context.Context, token, owner, spender sharedDomain.Address, amount sharedDomain.Amount) error
}

// Ledger implements TokenLedger over a BalanceStore. It must be called inside
// the same unit of work as the state change it funds.
type Ledger struct {
	store BalanceStore
}

// NewLedger creates a ledger over store.
func NewLedger(store BalanceStore) *Ledger {
	return &Ledger{store: store}
}

// BalanceOf returns the balance of account.
func (l *Ledger) BalanceOf(ctx context.Context, token, account sharedDomain.Address) (sharedDomain.Amount, error) {
	return l.store.Balance(ctx, token, account)
}

// Allowance returns what spender may still move out of owner's balance.
func (l *Ledger) Allowance(ctx context.Context, token, owner, spender sharedDomain.Address) (sharedDomain.Amount, error) {
	return l.store.Allowance(ctx, token, owner, spender)
}

// Transfer moves amount from from to to.
func (l *Ledger) Transfer(ctx context.Context, token, from, to sharedDomain.Address, amount sharedDomain.Amount) error {
	if token.IsZero() || from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: zero address", ErrTransferReverted)
	}
	return l.move(ctx, token, from, to, amount)
}

// TransferFrom moves amount from owner to to on behalf of spender.
func (l *Ledger) TransferFrom(ctx context.Context, token, spender, owner, to sharedDomain.Address, amount sharedDomain.Amount) error {
	if token.IsZero() || owner.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: zero address", ErrTransferReverted)
	}
	allowance, err := l.store.Allowance(ctx, token, owner, spender)
	if err != nil {
		return err
	}
	remaining, err := allowance.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %s approved for %s, %s requested", ErrInsufficientAllowance, allowance, spender, amount)
	}
	if err := l.move(ctx, token, owner, to, amount); err != nil {
		return err
	}
	return l.store.SetAllowance(ctx, token, owner, spender, remaining)
}

// Approve sets spender's allowance over owner's balance.
func (l *Ledger) Approve(ctx context.Context, token, owner, spender sharedDomain.Address, amount sharedDomain.Amount) error {
	if token.IsZero() || owner.IsZero() || spender.IsZero() {
		return fmt.Errorf("%w: zero address", ErrTransferReverted)
	}
	return l.store.SetAllowance(ctx, token, owner, spender, amount)
}

// Mint credits amount to to out of thin air. Only the local development ledger
// exposes minting.
func (l *Ledger) Mint(ctx context.Context, token, to sharedDomain.Address, amount sharedDomain.Amount) error {
	if token.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: zero address", ErrTransferReverted)
	}
	balance, err := l.store.Balance(ctx, token, to)
	if err != nil {
		return err
	}
	credited, err := balance.Add(amount)
	if err != nil {
		return fmt.Errorf("%w: balance overflow", ErrTransferReverted)
	}
	return l.store.SetBalance(ctx, token, to, credited)
}

func (l *Ledger) move(ctx context.Context, token, from, to sharedDomain.Address, amount sharedDomain.Amount) error {
	fromBalance, err := l.store.Balance(ctx, token, from)
	if err != nil {
		return err
	}
	debited, err := fromBalance.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %s holds %s, %s requested", ErrInsufficientBalance, from, fromBalance, amount)
	}
	if from == to {
		return nil
	}
	if err := l.store.SetBalance(ctx, token, from, debited); err != nil {
		return err
	}
	toBalance, err := l.store.Balance(ctx, token, to)
	if err != nil {
		return err
	}
	credited, err := toBalance.Add(amount)
	if err != nil {
		return fmt.Errorf("%w: balance overflow", ErrTransferReverted)
	}
	return l.store.SetBalance(ctx, token, to, credited)
}

var _ TokenLedger = (*Ledger)(nil)
