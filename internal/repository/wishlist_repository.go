package repository

import (
	"context"
	"fmt"

	"github.com/fjod/athometyre/internal/domain"
)

func (r *Repository) ListWishlist(ctx context.Context, userID int64) ([]domain.WishlistItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, b.name, t.price, t.stock > 0, w.added_at
		FROM wishlist_items w
		JOIN tyres t ON t.id = w.tyre_id
		JOIN brands b ON b.id = t.brand_id
		WHERE w.user_id = $1
		ORDER BY w.added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	items := make([]domain.WishlistItem, 0)
	for rows.Next() {
		var it domain.WishlistItem
		if err := rows.Scan(&it.TyreID, &it.Name, &it.BrandName, &it.Price, &it.InStock, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddWishlistItem returns false when the tyre was already on the list.
func (r *Repository) AddWishlistItem(ctx context.Context, userID, tyreID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (user_id, tyre_id) VALUES ($1, $2)
		ON CONFLICT (user_id, tyre_id) DO NOTHING`, userID, tyreID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrProductNotFound
		}
		return false, fmt.Errorf("failed to add wishlist item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return n == 1, nil
}

func (r *Repository) RemoveWishlistItem(ctx context.Context, userID, tyreID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND tyre_id = $2`, userID, tyreID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CountWishlist(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wishlist_items WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count wishlist: %w", err)
	}
	return n, nil
}
