// Package application exposes the router's view of the token ledger: pulling
// funds from a payer into custody and pushing them out to recipients.
package application

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/beaver/internal/assets/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// TransferAdapter moves tokens on behalf of the router custody account.
// Pull spends the allowance payers granted to custody; Push pays out of the
// custody balance.
type TransferAdapter struct {
	ledger  domain.TokenLedger
	custody sharedDomain.Address
}

// NewTransferAdapter creates an adapter acting as custody.
func NewTransferAdapter(ledger domain.TokenLedger, custody sharedDomain.Address) *TransferAdapter {
	return &TransferAdapter{ledger: ledger, custody: custody}
}

// Custody returns the address the adapter acts as.
func (a *TransferAdapter) Custody() sharedDomain.Address {
	return a.custody
}

// Pull moves amount of token from from to to using custody's allowance.
func (a *TransferAdapter) Pull(ctx context.Context, token, from, to sharedDomain.Address, amount sharedDomain.Amount) error {
	if err := a.ledger.TransferFrom(ctx, token, a.custody, from, to, amount); err != nil {
		return fmt.Errorf("pull %s from %s: %w", amount, from, err)
	}
	return nil
}

// Push moves amount of token from custody to to. Zero amounts are skipped.
func (a *TransferAdapter) Push(ctx context.Context, token, to sharedDomain.Address, amount sharedDomain.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if err := a.ledger.Transfer(ctx, token, a.custody, to, amount); err != nil {
		return fmt.Errorf("push %s to %s: %w", amount, to, err)
	}
	return nil
}
