package repository

import (
	"context"
	"fmt"

	"github.com/fjod/athometyre/internal/domain"
)

func (r *Repository) GetCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, b.name, t.size, t.image_url, c.quantity, t.price, t.stock
		FROM cart_items c
		JOIN tyres t ON t.id = c.tyre_id
		JOIN brands b ON b.id = t.brand_id
		WHERE c.user_id = $1
		ORDER BY c.added_at, t.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.TyreID, &l.Name, &l.BrandName, &l.Size, &l.ImageURL, &l.Quantity, &l.UnitPrice, &l.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// AddCartItem adds quantity to the line, creating it when absent. The
// stored quantity never exceeds domain.MaxCartQuantity.
func (r *Repository) AddCartItem(ctx context.Context, userID, tyreID int64, quantity int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, tyre_id, quantity)
		VALUES ($1, $2, LEAST($3, $4))
		ON CONFLICT (user_id, tyre_id)
		DO UPDATE SET quantity = LEAST(cart_items.quantity + EXCLUDED.quantity, $4)`,
		userID, tyreID, quantity, domain.MaxCartQuantity)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCartItem(ctx context.Context, userID, tyreID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND tyre_id = $2`,
		userID, tyreID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *Repository) RemoveCartItem(ctx context.Context, userID, tyreID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND tyre_id = $2`, userID, tyreID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *Repository) ClearCart(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
