package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/athometyre/internal/domain"
)

func (r *Repository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, phone, role, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user, or refreshes name and role when the email exists.
func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleCustomer
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, phone, role) VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role
		RETURNING id, created_at`,
		u.Email, u.Name, u.Phone, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *Repository) UpsertDealer(ctx context.Context, d *domain.Dealer) error {
	if d.TierLevel == 0 {
		d.TierLevel = 1
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO dealers (user_id, business_name, gst_number, tier_level) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET business_name = EXCLUDED.business_name, gst_number = EXCLUDED.gst_number
		RETURNING tier_level, created_at`,
		d.UserID, d.BusinessName, d.GSTNumber, d.TierLevel,
	).Scan(&d.TierLevel, &d.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to upsert dealer: %w", err)
	}
	return nil
}

func (r *Repository) GetDealer(ctx context.Context, userID int64) (*domain.Dealer, error) {
	d := &domain.Dealer{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, business_name, gst_number, tier_level, created_at FROM dealers WHERE user_id = $1`, userID,
	).Scan(&d.UserID, &d.BusinessName, &d.GSTNumber, &d.TierLevel, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDealerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query dealer: %w", err)
	}
	return d, nil
}

func (r *Repository) SetDealerTier(ctx context.Context, userID int64, level int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dealers SET tier_level = $2 WHERE user_id = $1`, userID, level)
	if err != nil {
		return fmt.Errorf("failed to set dealer tier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDealerNotFound
	}
	return nil
}

// CreateCoupon inserts or replaces a coupon definition.
func (r *Repository) CreateCoupon(ctx context.Context, c *domain.Coupon) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (code, kind, value, min_subtotal, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE
		SET kind = EXCLUDED.kind, value = EXCLUDED.value, min_subtotal = EXCLUDED.min_subtotal,
		    expires_at = EXCLUDED.expires_at, active = EXCLUDED.active`,
		c.Code, c.Kind, c.Value, c.MinSubtotal, c.ExpiresAt, c.Active)
	if err != nil {
		return fmt.Errorf("failed to upsert coupon: %w", err)
	}
	return nil
}
