package queries

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/beaver/internal/assets/domain"
	"github.com/felixgeelhaar/beaver/internal/assets/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalanceHandler_Handle(t *testing.T) {
	ctx := context.Background()
	token := sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000c0")
	holder := sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000a1")
	custody := sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000be")

	ledger := domain.NewLedger(persistence.NewMemoryBalanceStore(memstore.New()))
	require.NoError(t, ledger.Mint(ctx, token, holder, sharedDomain.NewAmount(9)))
	require.NoError(t, ledger.Approve(ctx, token, holder, custody, sharedDomain.NewAmount(3)))
	handler := NewGetBalanceHandler(ledger)

	t.Run("balance only", func(t *testing.T) {
		dto, err := handler.Handle(ctx, GetBalanceQuery{Token: token, Account: holder})
		require.NoError(t, err)
		assert.Equal(t, "9", dto.Balance.String())
		assert.Nil(t, dto.Allowance)
	})

	t.Run("with allowance", func(t *testing.T) {
		dto, err := handler.Handle(ctx, GetBalanceQuery{Token: token, Account: holder, Spender: custody})
		require.NoError(t, err)
		require.NotNil(t, dto.Allowance)
		assert.Equal(t, "3", dto.Allowance.String())
		assert.Equal(t, custody, *dto.Spender)
	})
}
