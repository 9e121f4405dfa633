package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const checkoutSessionColumns = `
	id, user_id, idempotency_key, request_hash, status, order_id,
	transaction_id, failure_reason, created_at, updated_at`

func scanCheckoutSession(row rowScanner) (*domain.CheckoutSession, error) {
	s := &domain.CheckoutSession{}
	var orderID uuid.NullUUID
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.IdempotencyKey,
		&s.RequestHash,
		&s.Status,
		&orderID,
		&s.TransactionID,
		&s.FailureReason,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if orderID.Valid {
		id := orderID.UUID
		s.OrderID = &id
	}
	return s, nil
}

func (r *Repository) ClaimCheckoutSession(ctx context.Context, s *domain.CheckoutSession) (*domain.CheckoutSession, bool, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = domain.CheckoutStatusInProgress
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO checkout_sessions (id, user_id, idempotency_key, request_hash, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING`,
		s.ID, s.UserID, s.IdempotencyKey, s.RequestHash, s.Status)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, fmt.Errorf("failed to claim checkout session: %w", err)
	}

	created, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to claim checkout session: %w", err)
	}

	stored, err := scanCheckoutSession(r.db.QueryRowContext(ctx,
		`SELECT`+checkoutSessionColumns+` FROM checkout_sessions WHERE user_id = $1 AND idempotency_key = $2`,
		s.UserID, s.IdempotencyKey))
	if errors.Is(err, sql.ErrNoRows) {
		// released between the insert and the read; the caller may retry
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read checkout session: %w", err)
	}
	return stored, created == 1, nil
}

// ReleaseCheckoutSession deletes an in-progress session so the key can be
// reused after a failure that left no trace.
func (r *Repository) ReleaseCheckoutSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM checkout_sessions WHERE id = $1 AND status = $2`,
		id, domain.CheckoutStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to release checkout session: %w", err)
	}
	return nil
}

func (r *Repository) RecordSessionCharge(ctx context.Context, id uuid.UUID, transactionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE checkout_sessions SET transaction_id = $2, updated_at = NOW()
		WHERE id = $1`, id, transactionID)
	if err != nil {
		return fmt.Errorf("failed to record charge: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MarkSessionReconcile(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE checkout_sessions
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		id, domain.CheckoutStatusReconcile, reason, domain.CheckoutStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to mark session for reconciliation: %w", err)
	}
	return nil
}

// InCheckoutTx runs fn with a CheckoutTx bound to one database transaction.
// Waiting longer than the checkout lock timeout for a row another checkout
// holds fails with ErrLockTimeout.
func (r *Repository) InCheckoutTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT set_config('lock_timeout', $1, true)`,
			fmt.Sprintf("%dms", r.lockTimeout().Milliseconds())); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
		err := fn(&checkoutTx{tx: tx})
		if isLockTimeout(err) {
			return fmt.Errorf("%w: %v", ErrLockTimeout, err)
		}
		return err
	})
}

// SetCheckoutLockTimeout bounds how long a checkout waits for cart and
// tyre row locks.
func (r *Repository) SetCheckoutLockTimeout(d time.Duration) {
	r.checkoutLockTimeout = d
}

func (r *Repository) lockTimeout() time.Duration {
	if r.checkoutLockTimeout <= 0 {
		return DefaultCheckoutLockTimeout
	}
	return r.checkoutLockTimeout
}

type checkoutTx struct {
	tx *sql.Tx
}

// LockCartLines reads the cart with current prices and locks both the
// cart rows and the tyre rows, always in tyre id order.
func (c *checkoutTx) LockCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	rows, err := c.tx.QueryContext(ctx, `
		SELECT t.id, t.name, b.name, t.size, t.image_url, c.quantity, t.price, t.stock
		FROM cart_items c
		JOIN tyres t ON t.id = c.tyre_id
		JOIN brands b ON b.id = t.brand_id
		WHERE c.user_id = $1
		ORDER BY t.id
		FOR UPDATE OF c, t`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.TyreID, &l.Name, &l.BrandName, &l.Size, &l.ImageURL, &l.Quantity, &l.UnitPrice, &l.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (c *checkoutTx) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	cp := &domain.Coupon{}
	var expires sql.NullTime
	err := c.tx.QueryRowContext(ctx, `
		SELECT code, kind, value, min_subtotal, expires_at, active
		FROM coupons WHERE UPPER(code) = UPPER($1)`, code,
	).Scan(&cp.Code, &cp.Kind, &cp.Value, &cp.MinSubtotal, &expires, &cp.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read coupon: %w", err)
	}
	if expires.Valid {
		t := expires.Time
		cp.ExpiresAt = &t
	}
	return cp, nil
}

func (c *checkoutTx) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var exists bool
	err := c.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, orderNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return exists, nil
}

// InsertOrder stores the order header, its items and, when present, the
// payment row.
func (c *checkoutTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	err := c.tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, user_id, order_number, subtotal, discount_amount, shipping_amount,
		                    total_amount, currency, status, payment_status, payment_method,
		                    shipping_address, billing_address, coupon_code, notes, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.OrderNumber, o.Subtotal, o.DiscountAmount, o.ShippingAmount,
		o.TotalAmount, o.Currency, o.Status, o.PaymentStatus, o.PaymentMethod,
		o.ShippingAddress, o.BillingAddress, o.CouponCode, o.Notes, o.IdempotencyKey,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.OrderID = o.ID
		_, err := c.tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, tyre_id, tyre_name, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, it.OrderID, it.TyreID, it.TyreName, it.Quantity, it.UnitPrice, it.TotalPrice)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if p := o.Payment; p != nil {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.OrderID = o.ID
		err := c.tx.QueryRowContext(ctx, `
			INSERT INTO payments (id, order_id, amount, payment_method, transaction_id, status, gateway_response)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING payment_date`,
			p.ID, p.OrderID, p.Amount, p.PaymentMethod, p.TransactionID, p.Status, p.GatewayResponse,
		).Scan(&p.PaymentDate)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}
	return nil
}

// DecrementStock lowers stock only when enough is left.
func (c *checkoutTx) DecrementStock(ctx context.Context, tyreID int64, quantity int) error {
	res, err := c.tx.ExecContext(ctx,
		`UPDATE tyres SET stock = stock - $2 WHERE id = $1 AND stock >= $2`, tyreID, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (c *checkoutTx) ClearCartLines(ctx context.Context, userID int64, tyreIDs []int64) error {
	_, err := c.tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND tyre_id = ANY($2)`, userID, pq.Array(tyreIDs))
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (c *checkoutTx) CompleteCheckoutSession(ctx context.Context, sessionID, orderID uuid.UUID) error {
	res, err := c.tx.ExecContext(ctx, `
		UPDATE checkout_sessions
		SET status = $2, order_id = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		sessionID, domain.CheckoutStatusCompleted, orderID, domain.CheckoutStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to complete checkout session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("checkout session %s is no longer in progress: %w", sessionID, ErrIllegalTransition)
	}
	return nil
}

func (c *checkoutTx) AppendOutbox(ctx context.Context, aggregateID, eventType string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}
	_, err = c.tx.ExecContext(ctx,
		`INSERT INTO outbox (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		aggregateID, eventType, payloadJSON)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}
