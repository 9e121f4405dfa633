package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/athometyre/internal/domain"
)

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		e := &domain.OutboxEvent{}
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// GetStuckSessions returns IN_PROGRESS sessions untouched for longer than
// olderThan.
func (r *Repository) GetStuckSessions(ctx context.Context, olderThan time.Duration) ([]*domain.CheckoutSession, error) {
	return r.querySessions(ctx,
		`SELECT`+checkoutSessionColumns+` FROM checkout_sessions
		 WHERE status = $1 AND updated_at < $2 ORDER BY updated_at`,
		domain.CheckoutStatusInProgress, time.Now().Add(-olderThan))
}

func (r *Repository) ListReconcileSessions(ctx context.Context) ([]*domain.CheckoutSession, error) {
	return r.querySessions(ctx,
		`SELECT`+checkoutSessionColumns+` FROM checkout_sessions WHERE status = $1 ORDER BY updated_at`,
		domain.CheckoutStatusReconcile)
}

func (r *Repository) querySessions(ctx context.Context, query string, args ...any) ([]*domain.CheckoutSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkout sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.CheckoutSession
	for rows.Next() {
		s, err := scanCheckoutSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkout session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
