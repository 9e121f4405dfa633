package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const orderColumns = `
	id, user_id, order_number, subtotal, discount_amount, shipping_amount, total_amount,
	currency, status, payment_status, payment_method, shipping_address, billing_address,
	coupon_code, notes, idempotency_key, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.OrderNumber,
		&o.Subtotal,
		&o.DiscountAmount,
		&o.ShippingAmount,
		&o.TotalAmount,
		&o.Currency,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.ShippingAddress,
		&o.BillingAddress,
		&o.CouponCode,
		&o.Notes,
		&o.IdempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return getOrder(ctx, r.db, id, false)
}

func getOrder(ctx context.Context, q queryer, id uuid.UUID, forUpdate bool) (*domain.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := loadOrderItems(ctx, q, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]

	payment, err := loadPayment(ctx, q, o.ID)
	if err != nil {
		return nil, err
	}
	o.Payment = payment
	return o, nil
}

func loadOrderItems(ctx context.Context, q queryer, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.OrderItem, error) {
	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, tyre_id, tyre_name, quantity, unit_price, total_price
		FROM order_items WHERE order_id = ANY($1::uuid[])
		ORDER BY tyre_id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.TyreID, &it.TyreName, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func loadPayment(ctx context.Context, q queryer, orderID uuid.UUID) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := q.QueryRowContext(ctx, `
		SELECT id, order_id, amount, payment_method, transaction_id, status, payment_date, gateway_response
		FROM payments WHERE order_id = $1`, orderID,
	).Scan(&p.ID, &p.OrderID, &p.Amount, &p.PaymentMethod, &p.TransactionID, &p.Status, &p.PaymentDate, &p.GatewayResponse)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return p, nil
}

// ListOrdersByUser returns the newest orders first, with their items.
// A limit of zero returns every order.
func (r *Repository) ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]domain.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := loadOrderItems(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// Refunder returns the money for a paid order and answers with the
// gateway's record of the refund.
type Refunder func(ctx context.Context, o *domain.Order) (*domain.GatewayResponse, error)

// UpdateOrderStatus moves an order along its lifecycle. Cancelling puts the
// ordered quantities back on the shelf. A paid order is marked REFUNDED only
// after refund succeeds; without a refund it cannot be cancelled.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus, refund Refunder) (*domain.Order, error) {
	var out *domain.Order
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		o, err := getOrder(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(next) {
			return fmt.Errorf("%s -> %s: %w", o.Status, next, ErrIllegalTransition)
		}

		paymentStatus := o.PaymentStatus
		if next == domain.OrderStatusCancelled {
			if paymentStatus == domain.PaymentStatusPaid {
				if refund == nil {
					return ErrRefundRequired
				}
				gr, err := refund(ctx, o)
				if err != nil {
					return err
				}
				paymentStatus = domain.PaymentStatusRefunded
				if _, err := tx.ExecContext(ctx, `
					UPDATE payments
					SET status = $2, gateway_response = gateway_response || jsonb_build_object('refundId', $3::text)
					WHERE order_id = $1`, id, paymentStatus, gr.RefundID); err != nil {
					return fmt.Errorf("failed to record refund: %w", err)
				}
				if o.Payment != nil {
					o.Payment.Status = paymentStatus
					o.Payment.GatewayResponse.RefundID = gr.RefundID
				}
			}
			for _, it := range o.Items {
				if _, err := tx.ExecContext(ctx,
					`UPDATE tyres SET stock = stock + $2 WHERE id = $1`, it.TyreID, it.Quantity); err != nil {
					return fmt.Errorf("failed to restock tyre %d: %w", it.TyreID, err)
				}
			}
		}
		if next == domain.OrderStatusDelivered && o.PaymentMethod == domain.PaymentCOD {
			paymentStatus = domain.PaymentStatusPaid
			if _, err := tx.ExecContext(ctx,
				`UPDATE payments SET status = $2 WHERE order_id = $1`, id, paymentStatus); err != nil {
				return fmt.Errorf("failed to settle payment: %w", err)
			}
			if o.Payment != nil {
				o.Payment.Status = paymentStatus
			}
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE orders SET status = $2, payment_status = $3, updated_at = NOW()
			WHERE id = $1 RETURNING updated_at`, id, next, paymentStatus).Scan(&o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		o.Status = next
		o.PaymentStatus = paymentStatus
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
