package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/athometyre/internal/domain"
)

// AdjustStock locks the tyre row, asks apply for the new level and writes
// it along with the audit row in one transaction.
func (r *Repository) AdjustStock(
	ctx context.Context,
	tyreID int64,
	apply func(current int) domain.StockAdjustment,
) (*domain.StockAdjustment, *domain.Tyre, error) {
	var adj domain.StockAdjustment
	var tyre *domain.Tyre

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx, `SELECT stock FROM tyres WHERE id = $1 FOR UPDATE`, tyreID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock tyre: %w", err)
		}

		adj = apply(current)
		adj.TyreID = tyreID
		adj.PreviousStock = current

		if _, err := tx.ExecContext(ctx, `UPDATE tyres SET stock = $2 WHERE id = $1`, tyreID, adj.NewStock); err != nil {
			if isCheckViolation(err) {
				return ErrInsufficientStock
			}
			return fmt.Errorf("failed to update stock: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO stock_adjustments (tyre_id, adjustment_type, quantity, previous_stock, new_stock,
			                               clamped, reason, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at`,
			adj.TyreID, adj.AdjustmentType, adj.Quantity, adj.PreviousStock, adj.NewStock,
			adj.Clamped, adj.Reason, adj.Notes, adj.CreatedBy,
		).Scan(&adj.ID, &adj.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert stock adjustment: %w", err)
		}

		tyre, err = scanTyre(tx.QueryRowContext(ctx, "SELECT"+tyreColumns+tyreFrom+" WHERE t.id = $1", tyreID))
		if err != nil {
			return fmt.Errorf("failed to reload tyre: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &adj, tyre, nil
}

// ListStockLevels returns every tyre's stock figures. Status labels are
// left for the caller to compute.
func (r *Repository) ListStockLevels(ctx context.Context) ([]domain.StockLevel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, b.name, t.size, t.price, t.stock, t.reorder_point, t.max_stock
		FROM tyres t JOIN brands b ON b.id = t.brand_id
		ORDER BY t.stock ASC, t.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	levels := make([]domain.StockLevel, 0)
	for rows.Next() {
		var l domain.StockLevel
		if err := rows.Scan(&l.TyreID, &l.Name, &l.BrandName, &l.Size, &l.Price, &l.Stock, &l.ReorderPoint, &l.MaxStock); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (r *Repository) ListAdjustments(ctx context.Context, tyreID int64, limit int) ([]domain.StockAdjustment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tyre_id, adjustment_type, quantity, previous_stock, new_stock,
		       clamped, reason, notes, created_by, created_at
		FROM stock_adjustments WHERE tyre_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, tyreID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock adjustments: %w", err)
	}
	defer rows.Close()

	out := make([]domain.StockAdjustment, 0)
	for rows.Next() {
		var a domain.StockAdjustment
		if err := rows.Scan(&a.ID, &a.TyreID, &a.AdjustmentType, &a.Quantity, &a.PreviousStock, &a.NewStock,
			&a.Clamped, &a.Reason, &a.Notes, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock adjustment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
