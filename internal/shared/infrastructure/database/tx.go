package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by Commit and Rollback outside Begin.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

// TxInfo is the transaction carried by a context. Owned is false for a
// nested Begin that joined an outer transaction.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// TxInfoFromContext returns the transaction carried by ctx.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	return info, ok && info.Tx != nil
}

// TxFromContext returns the transaction carried by ctx, or nil.
func TxFromContext(ctx context.Context) Transaction {
	info, _ := TxInfoFromContext(ctx)
	return info.Tx
}

// ExecutorFromContext returns the open transaction in ctx, falling back to conn.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}

// UnitOfWork implements application.UnitOfWork on a Connection. A Begin inside
// an open transaction joins it; only the outermost unit commits or rolls back.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a UnitOfWork on conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin opens a transaction, or joins the one already in ctx.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := TxInfoFromContext(ctx); ok {
		return context.WithValue(ctx, txKey{}, TxInfo{Tx: info.Tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: true}), nil
}

// Commit commits when this unit opened the transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	return u.finish(ctx, Transaction.Commit)
}

// Rollback rolls back when this unit opened the transaction.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	return u.finish(ctx, Transaction.Rollback)
}

func (u *UnitOfWork) finish(ctx context.Context, end func(Transaction, context.Context) error) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !info.Owned {
		return nil
	}
	return end(info.Tx, ctx)
}
