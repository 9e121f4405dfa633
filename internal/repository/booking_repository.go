package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/google/uuid"
)

const bookingColumns = `id, user_id, service_type, vehicle, scheduled_at, status, notes, created_at`

func scanBooking(row rowScanner) (*domain.ServiceBooking, error) {
	b := &domain.ServiceBooking{}
	err := row.Scan(&b.ID, &b.UserID, &b.ServiceType, &b.Vehicle, &b.ScheduledAt, &b.Status, &b.Notes, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Repository) CreateBooking(ctx context.Context, b *domain.ServiceBooking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = domain.BookingRequested
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO service_bookings (id, user_id, service_type, vehicle, scheduled_at, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		b.ID, b.UserID, b.ServiceType, b.Vehicle, b.ScheduledAt, b.Status, b.Notes,
	).Scan(&b.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *Repository) ListBookings(ctx context.Context, userID int64) ([]domain.ServiceBooking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM service_bookings WHERE user_id = $1 ORDER BY scheduled_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ServiceBooking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CancelBooking cancels a booking owned by userID if it is still cancellable.
func (r *Repository) CancelBooking(ctx context.Context, userID int64, id uuid.UUID) (*domain.ServiceBooking, error) {
	var out *domain.ServiceBooking
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		b, err := scanBooking(tx.QueryRowContext(ctx,
			`SELECT `+bookingColumns+` FROM service_bookings WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read booking: %w", err)
		}
		if !b.Status.Cancellable() {
			return ErrIllegalBookingMove
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE service_bookings SET status = $2 WHERE id = $1`, id, domain.BookingCancelled); err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}
		b.Status = domain.BookingCancelled
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CountUpcomingBookings(ctx context.Context, userID int64, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM service_bookings
		WHERE user_id = $1 AND scheduled_at >= $2 AND status IN ($3, $4)`,
		userID, now, domain.BookingRequested, domain.BookingConfirmed).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}
