package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
)

const (
	outboxTable   = "outbox"
	sequenceTable = "outbox_seq"
)

// MemoryRepository implements Repository on a memstore.Store.
type MemoryRepository struct {
	store *memstore.Store
}

// NewMemoryRepository creates an outbox repository backed by store.
func NewMemoryRepository(store *memstore.Store) *MemoryRepository {
	return &MemoryRepository{store: store}
}

func messageKey(id int64) string { return fmt.Sprintf("%020d", id) }

// Save stores a new outbox message.
func (r *MemoryRepository) Save(ctx context.Context, msg *Message) error {
	return r.store.Do(ctx, func(tx *memstore.Tx) error {
		var next int64 = 1
		if v, ok := tx.Get(sequenceTable, "id"); ok {
			next = v.(int64) + 1
		}
		if err := tx.Put(sequenceTable, "id", next); err != nil {
			return err
		}
		msg.ID = next
		stored := *msg
		return tx.Put(outboxTable, messageKey(next), stored)
	})
}

// SaveBatch stores multiple outbox messages atomically.
func (r *MemoryRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	return r.store.Do(ctx, func(tx *memstore.Tx) error {
		txCtx := memstore.WithTx(ctx, tx, false)
		for _, msg := range msgs {
			if err := r.Save(txCtx, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetUnpublished returns messages ready at now, oldest first.
func (r *MemoryRepository) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	var msgs []*Message
	err := r.store.Do(ctx, func(tx *memstore.Tx) error {
		tx.Scan(outboxTable, func(_ string, v any) bool {
			msg := v.(Message)
			if msg.Ready(now) {
				msgs = append(msgs, &msg)
			}
			return len(msgs) < limit
		})
		return nil
	})
	return msgs, err
}

// MarkPublished marks a message as successfully published.
func (r *MemoryRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, func(msg *Message) {
		msg.PublishedAt = &at
	})
}

// MarkFailed records a publish failure and schedules the next attempt.
func (r *MemoryRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return r.update(ctx, id, func(msg *Message) {
		msg.RetryCount++
		msg.LastError = &errMsg
		msg.NextRetryAt = &nextRetryAt
	})
}

// MarkDead moves a message to the dead letter state.
func (r *MemoryRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	return r.update(ctx, id, func(msg *Message) {
		msg.RetryCount++
		msg.DeadLetteredAt = &at
		msg.DeadLetterReason = &reason
	})
}

// DeleteOld removes published messages created before cutoff.
func (r *MemoryRepository) DeleteOld(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.store.Do(ctx, func(tx *memstore.Tx) error {
		var expired []string
		tx.Scan(outboxTable, func(key string, v any) bool {
			msg := v.(Message)
			if msg.IsPublished() && msg.CreatedAt.Before(cutoff) {
				expired = append(expired, key)
			}
			return true
		})
		for _, key := range expired {
			if err := tx.Delete(outboxTable, key); err != nil {
				return err
			}
		}
		n = int64(len(expired))
		return nil
	})
	return n, err
}

// All returns every stored message in insertion order.
func (r *MemoryRepository) All(ctx context.Context) ([]Message, error) {
	var msgs []Message
	err := r.store.Do(ctx, func(tx *memstore.Tx) error {
		tx.Scan(outboxTable, func(_ string, v any) bool {
			msgs = append(msgs, v.(Message))
			return true
		})
		return nil
	})
	return msgs, err
}

func (r *MemoryRepository) update(ctx context.Context, id int64, fn func(msg *Message)) error {
	return r.store.Do(ctx, func(tx *memstore.Tx) error {
		v, ok := tx.Get(outboxTable, messageKey(id))
		if !ok {
			return errors.New("outbox message not found")
		}
		msg := v.(Message)
		fn(&msg)
		return tx.Put(outboxTable, messageKey(id), msg)
	})
}

var _ Repository = (*MemoryRepository)(nil)
