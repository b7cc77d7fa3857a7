package commands

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/beaver/internal/assets/domain"
	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// MintCommand credits tokens on the local development ledger.
type MintCommand struct {
	Token  sharedDomain.Address
	To     sharedDomain.Address
	Amount sharedDomain.Amount
}

// CommandName implements application.Command.
func (MintCommand) CommandName() string { return "assets.mint" }

// MintResult reports the recipient's balance after minting.
type MintResult struct {
	Balance sharedDomain.Amount
}

// MintHandler handles MintCommand.
type MintHandler struct {
	ledger domain.TokenLedger
	uow    sharedApplication.UnitOfWork
}

// NewMintHandler creates a new MintHandler.
func NewMintHandler(ledger domain.TokenLedger, uow sharedApplication.UnitOfWork) *MintHandler {
	return &MintHandler{ledger: ledger, uow: uow}
}

// Handle executes the MintCommand.
func (h *MintHandler) Handle(ctx context.Context, cmd MintCommand) (*MintResult, error) {
	if cmd.Amount.IsZero() {
		return nil, errors.Join(sharedDomain.ErrInvalidParameters, errors.New("mint amount must be positive"))
	}
	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*MintResult, error) {
		if err := h.ledger.Mint(txCtx, cmd.Token, cmd.To, cmd.Amount); err != nil {
			return nil, err
		}
		balance, err := h.ledger.BalanceOf(txCtx, cmd.Token, cmd.To)
		if err != nil {
			return nil, err
		}
		return &MintResult{Balance: balance}, nil
	})
}

var _ sharedApplication.CommandHandler[MintCommand, *MintResult] = (*MintHandler)(nil)
