package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/athometyre/internal/domain"
)

const tyreColumns = `
	t.id, t.brand_id, b.name, t.name, t.size, t.width, t.aspect_ratio, t.rim_diameter,
	t.season, t.vehicle_type, t.price, t.stock, t.reorder_point, t.max_stock,
	t.description, t.image_url, t.created_at,
	COALESCE(r.avg_rating, 0), COALESCE(r.review_count, 0)`

const tyreFrom = `
	FROM tyres t
	JOIN brands b ON b.id = t.brand_id
	LEFT JOIN (
		SELECT tyre_id, AVG(rating)::float8 AS avg_rating, COUNT(*) AS review_count
		FROM reviews GROUP BY tyre_id
	) r ON r.tyre_id = t.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTyre(row rowScanner) (*domain.Tyre, error) {
	t := &domain.Tyre{}
	err := row.Scan(
		&t.ID,
		&t.BrandID,
		&t.BrandName,
		&t.Name,
		&t.Size,
		&t.Width,
		&t.AspectRatio,
		&t.RimDiameter,
		&t.Season,
		&t.VehicleType,
		&t.Price,
		&t.Stock,
		&t.ReorderPoint,
		&t.MaxStock,
		&t.Description,
		&t.ImageURL,
		&t.CreatedAt,
		&t.Rating,
		&t.ReviewCount,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// buildTyreWhere turns a filter into a WHERE clause and its arguments.
func buildTyreWhere(f TyreFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.BrandID > 0 {
		add("t.brand_id = $%d", f.BrandID)
	}
	if f.Season != "" {
		add("t.season = $%d", string(f.Season))
	}
	if f.VehicleType != "" {
		add("t.vehicle_type = $%d", string(f.VehicleType))
	}
	if f.Width > 0 {
		add("t.width = $%d", f.Width)
	}
	if f.AspectRatio > 0 {
		add("t.aspect_ratio = $%d", f.AspectRatio)
	}
	if f.RimDiameter > 0 {
		add("t.rim_diameter = $%d", f.RimDiameter)
	}
	if f.MinPrice != nil {
		add("t.price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("t.price <= $%d", *f.MaxPrice)
	}
	if f.InStock {
		conds = append(conds, "t.stock > 0")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(t.name ILIKE $%d OR b.name ILIKE $%d OR t.size ILIKE $%d)", n, n, n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func tyreOrderBy(s TyreSort) string {
	switch s {
	case SortPriceAsc:
		return " ORDER BY t.price ASC, t.id ASC"
	case SortPriceDesc:
		return " ORDER BY t.price DESC, t.id ASC"
	case SortName:
		return " ORDER BY t.name ASC, t.id ASC"
	case SortRating:
		return " ORDER BY COALESCE(r.avg_rating, 0) DESC, t.id ASC"
	default:
		return " ORDER BY t.created_at DESC, t.id DESC"
	}
}

func (r *Repository) ListTyres(ctx context.Context, f TyreFilter) ([]domain.Tyre, int, error) {
	where, args := buildTyreWhere(f)

	var total int
	countQuery := "SELECT COUNT(*)" + tyreFrom + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tyres: %w", err)
	}

	query := "SELECT" + tyreColumns + tyreFrom + where + tyreOrderBy(f.Sort)
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tyres: %w", err)
	}
	defer rows.Close()

	tyres := make([]domain.Tyre, 0)
	for rows.Next() {
		t, err := scanTyre(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan tyre: %w", err)
		}
		tyres = append(tyres, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}
	return tyres, total, nil
}

func (r *Repository) GetTyre(ctx context.Context, id int64) (*domain.Tyre, error) {
	query := "SELECT" + tyreColumns + tyreFrom + " WHERE t.id = $1"
	t, err := scanTyre(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query tyre by id: %w", err)
	}

	vehicles, err := r.listCompatibleVehicles(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Vehicles = vehicles
	return t, nil
}

func (r *Repository) listCompatibleVehicles(ctx context.Context, tyreID int64) ([]domain.CompatibleVehicle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tyre_id, make, model, year_from, year_to
		FROM compatible_vehicles WHERE tyre_id = $1
		ORDER BY make, model, year_from`, tyreID)
	if err != nil {
		return nil, fmt.Errorf("query compatible vehicles: %w", err)
	}
	defer rows.Close()

	var out []domain.CompatibleVehicle
	for rows.Next() {
		var v domain.CompatibleVehicle
		if err := rows.Scan(&v.ID, &v.TyreID, &v.Make, &v.Model, &v.YearFrom, &v.YearTo); err != nil {
			return nil, fmt.Errorf("scan compatible vehicle: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repository) FindTyresForVehicle(ctx context.Context, q VehicleQuery) ([]domain.Tyre, error) {
	query := "SELECT DISTINCT" + tyreColumns + tyreFrom + `
		JOIN compatible_vehicles v ON v.tyre_id = t.id
		WHERE LOWER(v.make) = LOWER($1)
		  AND ($2 = '' OR LOWER(v.model) = LOWER($2))
		  AND ($3 = 0 OR $3 BETWEEN v.year_from AND v.year_to)
		ORDER BY t.price ASC, t.id ASC`

	rows, err := r.db.QueryContext(ctx, query, q.Make, q.Model, q.Year)
	if err != nil {
		return nil, fmt.Errorf("query tyres for vehicle: %w", err)
	}
	defer rows.Close()

	tyres := make([]domain.Tyre, 0)
	for rows.Next() {
		t, err := scanTyre(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tyre: %w", err)
		}
		tyres = append(tyres, *t)
	}
	return tyres, rows.Err()
}

func (r *Repository) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, country, logo_url FROM brands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	defer rows.Close()

	brands := make([]domain.Brand, 0)
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Country, &b.LogoURL); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

func (r *Repository) ListReviews(ctx context.Context, tyreID int64) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rv.id, rv.user_id, u.name, rv.tyre_id, rv.rating, rv.comment, rv.created_at
		FROM reviews rv JOIN users u ON u.id = rv.user_id
		WHERE rv.tyre_id = $1
		ORDER BY rv.created_at DESC`, tyreID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.UserName, &rv.TyreID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *Repository) CreateReview(ctx context.Context, review *domain.Review) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (user_id, tyre_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		review.UserID, review.TyreID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// CreateBrand inserts a brand, returning the existing id on a name clash.
func (r *Repository) CreateBrand(ctx context.Context, b *domain.Brand) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO brands (name, country, logo_url) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET country = EXCLUDED.country
		RETURNING id`, b.Name, b.Country, b.LogoURL).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert brand: %w", err)
	}
	return nil
}

// CreateTyre inserts a tyre with its compatible vehicles.
func (r *Repository) CreateTyre(ctx context.Context, t *domain.Tyre) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO tyres (brand_id, name, size, width, aspect_ratio, rim_diameter, season,
			                   vehicle_type, price, stock, reorder_point, max_stock, description, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id, created_at`,
			t.BrandID, t.Name, t.Size, t.Width, t.AspectRatio, t.RimDiameter, t.Season,
			t.VehicleType, t.Price, t.Stock, t.ReorderPoint, t.MaxStock, t.Description, t.ImageURL,
		).Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("tyre %q: %w", t.Name, ErrAlreadyExists)
			}
			return fmt.Errorf("insert tyre: %w", err)
		}
		for i := range t.Vehicles {
			v := &t.Vehicles[i]
			v.TyreID = t.ID
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO compatible_vehicles (tyre_id, make, model, year_from, year_to)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				v.TyreID, v.Make, v.Model, v.YearFrom, v.YearTo).Scan(&v.ID); err != nil {
				return fmt.Errorf("insert compatible vehicle: %w", err)
			}
		}
		return nil
	})
}
