// Package memstore is an in-memory transactional key-value store.
//
// A transaction owns the whole store from Begin until Commit or Rollback, so
// transactions are fully serialized. Writes are buffered in the transaction
// and become visible to others only on Commit.
package memstore

import (
	"context"
	"errors"
	"sort"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("memstore: transaction already committed or rolled back")

// Store holds committed tables of values keyed by string.
type Store struct {
	sem    chan struct{}
	tables map[string]map[string]any
}

// New creates an empty store.
func New() *Store {
	return &Store{
		sem:    make(chan struct{}, 1),
		tables: make(map[string]map[string]any),
	}
}

// Begin waits for exclusive access and starts a transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Tx{store: s, writes: make(map[string]map[string]any)}, nil
}

// Do runs fn in the transaction carried by ctx, or in a new transaction that
// commits when fn succeeds.
func (s *Store) Do(ctx context.Context, fn func(tx *Tx) error) error {
	if tx := TxFromContext(ctx); tx != nil && tx.store == s {
		return fn(tx)
	}
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type tombstone struct{}

// Tx is a buffered, exclusive view of the store.
type Tx struct {
	store  *Store
	writes map[string]map[string]any
	done   bool
}

// Get returns the value stored under table/key as seen by this transaction.
func (t *Tx) Get(table, key string) (any, bool) {
	if w, ok := t.writes[table]; ok {
		if v, ok := w[key]; ok {
			if _, deleted := v.(tombstone); deleted {
				return nil, false
			}
			return v, true
		}
	}
	v, ok := t.store.tables[table][key]
	return v, ok
}

// Put stages a value under table/key.
func (t *Tx) Put(table, key string, value any) error {
	if t.done {
		return ErrTxDone
	}
	w, ok := t.writes[table]
	if !ok {
		w = make(map[string]any)
		t.writes[table] = w
	}
	w[key] = value
	return nil
}

// Delete stages removal of table/key.
func (t *Tx) Delete(table, key string) error {
	return t.Put(table, key, tombstone{})
}

// Scan calls fn for every key in table in ascending key order until fn returns false.
func (t *Tx) Scan(table string, fn func(key string, value any) bool) {
	keys := make(map[string]struct{})
	for k := range t.store.tables[table] {
		keys[k] = struct{}{}
	}
	for k := range t.writes[table] {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	for _, k := range sorted {
		v, ok := t.Get(table, k)
		if !ok {
			continue
		}
		if !fn(k, v) {
			return
		}
	}
}

// Commit applies the buffered writes and releases the store.
func (t *Tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	for table, w := range t.writes {
		committed, ok := t.store.tables[table]
		if !ok {
			committed = make(map[string]any, len(w))
			t.store.tables[table] = committed
		}
		for k, v := range w {
			if _, deleted := v.(tombstone); deleted {
				delete(committed, k)
				continue
			}
			committed[k] = v
		}
	}
	t.finish()
	return nil
}

// Rollback discards the buffered writes and releases the store.
func (t *Tx) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.done = true
	t.writes = nil
	<-t.store.sem
}
