package persistence

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/beaver/internal/assets/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testToken   = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000c0")
	testOwner   = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000a1")
	testSpender = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000be")
)

// setupLedgerTestDB opens an in-memory SQLite database with the schema applied.
func setupLedgerTestDB(t *testing.T) database.Connection {
	t.Helper()

	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: database.InMemorySQLitePath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Run(ctx, conn))
	return conn
}

func balanceStores(t *testing.T) map[string]domain.BalanceStore {
	return map[string]domain.BalanceStore{
		"memory": NewMemoryBalanceStore(memstore.New()),
		"sqlite": NewSQLBalanceStore(setupLedgerTestDB(t)),
	}
}

func TestBalanceStore_DefaultsToZero(t *testing.T) {
	ctx := context.Background()
	for name, store := range balanceStores(t) {
		t.Run(name, func(t *testing.T) {
			balance, err := store.Balance(ctx, testToken, testOwner)
			require.NoError(t, err)
			assert.True(t, balance.IsZero())

			allowance, err := store.Allowance(ctx, testToken, testOwner, testSpender)
			require.NoError(t, err)
			assert.True(t, allowance.IsZero())
		})
	}
}

func TestBalanceStore_Upsert(t *testing.T) {
	ctx := context.Background()
	big := sharedDomain.MustParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	for name, store := range balanceStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SetBalance(ctx, testToken, testOwner, sharedDomain.NewAmount(10)))
			require.NoError(t, store.SetBalance(ctx, testToken, testOwner, big))

			balance, err := store.Balance(ctx, testToken, testOwner)
			require.NoError(t, err)
			assert.True(t, big.Equal(balance))

			require.NoError(t, store.SetAllowance(ctx, testToken, testOwner, testSpender, sharedDomain.NewAmount(7)))
			allowance, err := store.Allowance(ctx, testToken, testOwner, testSpender)
			require.NoError(t, err)
			assert.Equal(t, "7", allowance.String())

			other, err := store.Allowance(ctx, testToken, testSpender, testOwner)
			require.NoError(t, err)
			assert.True(t, other.IsZero())
		})
	}
}

func TestSQLBalanceStore_RollbackDiscardsTransfer(t *testing.T) {
	ctx := context.Background()
	conn := setupLedgerTestDB(t)
	ledger := domain.NewLedger(NewSQLBalanceStore(conn))
	require.NoError(t, ledger.Mint(ctx, testToken, testOwner, sharedDomain.NewAmount(100)))

	uow := database.NewUnitOfWork(conn)
	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, ledger.Transfer(txCtx, testToken, testOwner, testSpender, sharedDomain.NewAmount(60)))
	require.NoError(t, uow.Rollback(txCtx))

	balance, err := ledger.BalanceOf(ctx, testToken, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "100", balance.String())
}

func TestMemoryBalanceStore_RollbackDiscardsTransfer(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := domain.NewLedger(NewMemoryBalanceStore(store))
	require.NoError(t, ledger.Mint(ctx, testToken, testOwner, sharedDomain.NewAmount(100)))

	uow := memstore.NewUnitOfWork(store)
	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, ledger.Transfer(txCtx, testToken, testOwner, testSpender, sharedDomain.NewAmount(60)))
	require.NoError(t, uow.Rollback(txCtx))

	balance, err := ledger.BalanceOf(ctx, testToken, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "100", balance.String())
}

func TestSQLBalanceStore_FirstCreditInsideTransaction(t *testing.T) {
	ctx := context.Background()
	conn := setupLedgerTestDB(t)
	store := NewSQLBalanceStore(conn)
	ledger := domain.NewLedger(store)
	uow := database.NewUnitOfWork(conn)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	balance, err := store.Balance(txCtx, testToken, testSpender)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	require.NoError(t, uow.Rollback(txCtx))

	var rows int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM token_balances WHERE account = ?`, testSpender.String()).Scan(&rows))
	assert.Zero(t, rows)

	for range 3 {
		txCtx, err := uow.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, ledger.Mint(txCtx, testToken, testSpender, sharedDomain.NewAmount(4)))
		require.NoError(t, uow.Commit(txCtx))
	}
	balance, err = ledger.BalanceOf(ctx, testToken, testSpender)
	require.NoError(t, err)
	assert.Equal(t, "12", balance.String())
}
