package commands

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/assets/domain"
	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// ApproveCommand sets the allowance Spender may draw from Owner.
// Subscribers approve the router custody account before paying.
type ApproveCommand struct {
	Token   sharedDomain.Address
	Owner   sharedDomain.Address
	Spender sharedDomain.Address
	Amount  sharedDomain.Amount
}

// CommandName implements application.Command.
func (ApproveCommand) CommandName() string { return "assets.approve" }

// ApproveHandler handles ApproveCommand.
type ApproveHandler struct {
	ledger domain.TokenLedger
	uow    sharedApplication.UnitOfWork
}

// NewApproveHandler creates a new ApproveHandler.
func NewApproveHandler(ledger domain.TokenLedger, uow sharedApplication.UnitOfWork) *ApproveHandler {
	return &ApproveHandler{ledger: ledger, uow: uow}
}

// Handle executes the ApproveCommand.
func (h *ApproveHandler) Handle(ctx context.Context, cmd ApproveCommand) (struct{}, error) {
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return h.ledger.Approve(txCtx, cmd.Token, cmd.Owner, cmd.Spender, cmd.Amount)
	})
	return struct{}{}, err
}

var _ sharedApplication.CommandHandler[ApproveCommand, struct{}] = (*ApproveHandler)(nil)
