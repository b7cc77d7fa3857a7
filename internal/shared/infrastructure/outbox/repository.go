package outbox

import (
	"context"
	"time"
)

// Repository defines the interface for outbox persistence.
// Save and SaveBatch join the transaction carried by ctx when there is one.
type Repository interface {
	Save(ctx context.Context, msg *Message) error
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns messages ready at now, oldest first.
	GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string, at time.Time) error

	// DeleteOld removes published messages created before cutoff.
	DeleteOld(ctx context.Context, cutoff time.Time) (int64, error)
}
