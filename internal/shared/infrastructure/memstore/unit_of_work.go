package memstore

import (
	"context"
	"errors"
)

type txKey struct{}

type txInfo struct {
	tx    *Tx
	owned bool
}

// WithTx stores a transaction in the context.
func WithTx(ctx context.Context, tx *Tx, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, txInfo{tx: tx, owned: owned})
}

// TxFromContext returns the transaction in ctx, or nil.
func TxFromContext(ctx context.Context) *Tx {
	info, ok := ctx.Value(txKey{}).(txInfo)
	if !ok {
		return nil
	}
	return info.tx
}

// UnitOfWork implements application.UnitOfWork on top of a Store.
type UnitOfWork struct {
	store *Store
}

// NewUnitOfWork creates a unit of work bound to store.
func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Begin starts a transaction, reusing one already present in ctx.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := ctx.Value(txKey{}).(txInfo); ok && info.tx != nil && !info.tx.done {
		return WithTx(ctx, info.tx, false), nil
	}
	tx, err := u.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return WithTx(ctx, tx, true), nil
}

// Commit commits the transaction if this unit owns it.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	info, ok := ctx.Value(txKey{}).(txInfo)
	if !ok {
		return errors.New("no transaction in context")
	}
	if !info.owned {
		return nil
	}
	return info.tx.Commit()
}

// Rollback rolls back the transaction if this unit owns it.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	info, ok := ctx.Value(txKey{}).(txInfo)
	if !ok {
		return errors.New("no transaction in context")
	}
	if !info.owned {
		return nil
	}
	return info.tx.Rollback()
}
