package queries

import (
	"context"

	"github.com/felixgeelhaar/beaver/internal/assets/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// GetBalanceQuery asks for an account's balance and, when Spender is set,
// the allowance it granted Spender.
type GetBalanceQuery struct {
	Token   sharedDomain.Address
	Account sharedDomain.Address
	Spender sharedDomain.Address
}

// QueryName implements application.Query.
func (GetBalanceQuery) QueryName() string { return "assets.balance" }

// BalanceDTO is the read model for GetBalanceQuery.
type BalanceDTO struct {
	Token     sharedDomain.Address  `json:"token"`
	Account   sharedDomain.Address  `json:"account"`
	Balance   sharedDomain.Amount   `json:"balance"`
	Spender   *sharedDomain.Address `json:"spender,omitempty"`
	Allowance *sharedDomain.Amount  `json:"allowance,omitempty"`
}

// GetBalanceHandler handles GetBalanceQuery.
type GetBalanceHandler struct {
	ledger domain.TokenLedger
}

// NewGetBalanceHandler creates a new GetBalanceHandler.
func NewGetBalanceHandler(ledger domain.TokenLedger) *GetBalanceHandler {
	return &GetBalanceHandler{ledger: ledger}
}

// Handle executes the GetBalanceQuery.
func (h *GetBalanceHandler) Handle(ctx context.Context, q GetBalanceQuery) (*BalanceDTO, error) {
	balance, err := h.ledger.BalanceOf(ctx, q.Token, q.Account)
	if err != nil {
		return nil, err
	}
	dto := &BalanceDTO{Token: q.Token, Account: q.Account, Balance: balance}
	if !q.Spender.IsZero() {
		allowance, err := h.ledger.Allowance(ctx, q.Token, q.Account, q.Spender)
		if err != nil {
			return nil, err
		}
		spender := q.Spender
		dto.Spender = &spender
		dto.Allowance = &allowance
	}
	return dto, nil
}
