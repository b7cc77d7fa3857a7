package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLRepository implements Repository for SQLite and PostgreSQL.
// Timestamps are stored as unix milliseconds so both dialects compare them the same way.
type SQLRepository struct {
	conn database.Connection
}

// NewSQLRepository creates a new SQL outbox repository.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn}
}

func (r *SQLRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save stores a new outbox message.
func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	return exec.QueryRow(ctx, r.q(`
		INSERT INTO outbox (
			event_id, aggregate_type, aggregate_id, routing_key,
			payload, metadata, created_at, retry_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		RETURNING id
	`),
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID,
		msg.RoutingKey,
		string(msg.Payload),
		string(msg.Metadata),
		msg.CreatedAt.UnixMilli(),
	).Scan(&msg.ID)
}

// SaveBatch stores multiple outbox messages atomically.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if _, ok := database.TxInfoFromContext(ctx); ok {
		for _, msg := range msgs {
			if err := r.Save(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	uow := database.NewUnitOfWork(r.conn)
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := r.Save(txCtx, msg); err != nil {
			_ = uow.Rollback(txCtx)
			return err
		}
	}
	return uow.Commit(txCtx)
}

// GetUnpublished returns messages ready at now, oldest first.
func (r *SQLRepository) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, r.q(`
		SELECT id, event_id, aggregate_type, aggregate_id, routing_key,
		       payload, metadata, created_at, retry_count, next_retry_at, last_error
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?
	`), now.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var (
			msg               Message
			eventID           string
			payload, metadata string
			createdAt         int64
			nextRetryAt       *int64
		)
		if err := rows.Scan(
			&msg.ID, &eventID, &msg.AggregateType, &msg.AggregateID, &msg.RoutingKey,
			&payload, &metadata, &createdAt, &msg.RetryCount, &nextRetryAt, &msg.LastError,
		); err != nil {
			return nil, err
		}
		if msg.EventID, err = uuid.Parse(eventID); err != nil {
			return nil, err
		}
		msg.Payload = json.RawMessage(payload)
		msg.Metadata = json.RawMessage(metadata)
		msg.CreatedAt = time.UnixMilli(createdAt).UTC()
		if nextRetryAt != nil {
			t := time.UnixMilli(*nextRetryAt).UTC()
			msg.NextRetryAt = &t
		}
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

// MarkPublished marks a message as successfully published.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		r.q(`UPDATE outbox SET published_at = ? WHERE id = ?`), at.UnixMilli(), id)
	return err
}

// MarkFailed records a publish failure and schedules the next attempt.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, r.q(`
		UPDATE outbox
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?
	`), errMsg, nextRetryAt.UnixMilli(), id)
	return err
}

// MarkDead moves a message to the dead letter state.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, r.q(`
		UPDATE outbox
		SET retry_count = retry_count + 1, dead_lettered_at = ?, dead_letter_reason = ?
		WHERE id = ?
	`), at.UnixMilli(), reason, id)
	return err
}

// DeleteOld removes published messages created before cutoff.
func (r *SQLRepository) DeleteOld(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		r.q(`DELETE FROM outbox WHERE published_at IS NOT NULL AND created_at < ?`), cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

var _ Repository = (*SQLRepository)(nil)
