package repo

import (
	"context"

	"github.com/EmanElbedwihy/OMS/internal/usecase"
)

func (s *MySQLStore) InsertOutboxEvent(ctx context.Context, ev *usecase.OutboxEvent) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO outbox (id,aggregate_id,event_type,payload,status,attempts,created_at)
VALUES (?,?,?,?,?,0,?)
`, ev.ID, ev.AggregateID, ev.EventType, ev.Payload, usecase.OutboxPending, ev.CreatedAt)
	return err
}

// FetchPendingEvents returns up to limit unpublished events, oldest first.
func (s *MySQLStore) FetchPendingEvents(ctx context.Context, limit int) ([]usecase.OutboxEvent, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT id,aggregate_id,event_type,payload,status,attempts,created_at
FROM outbox
WHERE status = ?
ORDER BY created_at, id
LIMIT ?`, usecase.OutboxPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.OutboxEvent
	for rows.Next() {
		var ev usecase.OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.Status, &ev.Attempts, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *MySQLStore) MarkEventPublished(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `
UPDATE outbox SET status = ?, published_at = NOW(3)
WHERE id = ?`, usecase.OutboxPublished, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkEventFailed counts a failed publish. The event stays PENDING until it
// has failed maxAttempts times.
func (s *MySQLStore) MarkEventFailed(ctx context.Context, id string, cause string, maxAttempts int) error {
	if len(cause) > 512 {
		cause = cause[:512]
	}
	// status is assigned first so it sees the old attempts value
	_, err := s.q.ExecContext(ctx, `
UPDATE outbox
SET status = IF(attempts + 1 >= ?, ?, status),
    attempts = attempts + 1,
    last_error = ?
WHERE id = ?`, maxAttempts, usecase.OutboxFailed, cause, id)
	return err
}
