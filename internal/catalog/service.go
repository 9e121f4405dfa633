package catalog

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/fjod/athometyre/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

var (
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrInvalidSort       = errors.New("unknown sort order")
	ErrInvalidPriceRange = errors.New("minPrice is greater than maxPrice")
	ErrInvalidFinder     = errors.New("tyre finder needs a vehicle make or a complete size")
)

type Filter struct {
	BrandID     int64
	Season      domain.Season
	VehicleType domain.VehicleType
	Width       int
	AspectRatio int
	RimDiameter int
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStock     bool
	Query       string
	Sort        repository.TyreSort
	Page        int
	PageSize    int
}

type Page struct {
	Items    []domain.Tyre `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// Finder looks tyres up either by vehicle or by size. A vehicle make takes
// precedence when both are given.
type Finder struct {
	Make        string
	Model       string
	Year        int
	Width       int
	AspectRatio int
	RimDiameter int
}

type Service struct {
	repo repository.CatalogRepository
	log  *slog.Logger
}

func NewService(repo repository.CatalogRepository, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, log: log}
}

func (s *Service) ListTyres(ctx context.Context, f Filter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize <= 0:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	switch f.Sort {
	case "", repository.SortPriceAsc, repository.SortPriceDesc, repository.SortName,
		repository.SortNewest, repository.SortRating:
	default:
		return nil, ErrInvalidSort
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, ErrInvalidPriceRange
	}

	rf := repository.TyreFilter{
		BrandID:     f.BrandID,
		Season:      f.Season,
		VehicleType: f.VehicleType,
		Width:       f.Width,
		AspectRatio: f.AspectRatio,
		RimDiameter: f.RimDiameter,
		MinPrice:    f.MinPrice,
		MaxPrice:    f.MaxPrice,
		InStock:     f.InStock,
		Query:       strings.TrimSpace(f.Query),
		Sort:        f.Sort,
		Limit:       f.PageSize,
		Offset:      (f.Page - 1) * f.PageSize,
	}

	var (
		items []domain.Tyre
		total int
	)
	err := s.retry(ctx, "list tyres", func() error {
		var err error
		items, total, err = s.repo.ListTyres(ctx, rf)
		return err
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Tyre{}
	}
	return &Page{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (s *Service) GetTyre(ctx context.Context, id int64) (*domain.Tyre, error) {
	var t *domain.Tyre
	err := s.retry(ctx, "get tyre", func() error {
		var err error
		t, err = s.repo.GetTyre(ctx, id)
		return err
	})
	return t, err
}

func (s *Service) FindTyres(ctx context.Context, q Finder) ([]domain.Tyre, error) {
	q.Make = strings.TrimSpace(q.Make)
	q.Model = strings.TrimSpace(q.Model)

	if q.Make != "" {
		var out []domain.Tyre
		err := s.retry(ctx, "find tyres for vehicle", func() error {
			var err error
			out, err = s.repo.FindTyresForVehicle(ctx, repository.VehicleQuery{Make: q.Make, Model: q.Model, Year: q.Year})
			return err
		})
		return out, err
	}

	if q.Width <= 0 || q.AspectRatio <= 0 || q.RimDiameter <= 0 {
		return nil, ErrInvalidFinder
	}
	page, err := s.ListTyres(ctx, Filter{
		Width:       q.Width,
		AspectRatio: q.AspectRatio,
		RimDiameter: q.RimDiameter,
		Sort:        repository.SortPriceAsc,
		PageSize:    MaxPageSize,
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *Service) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	var out []domain.Brand
	err := s.retry(ctx, "list brands", func() error {
		var err error
		out, err = s.repo.ListBrands(ctx)
		return err
	})
	return out, err
}

func (s *Service) ListReviews(ctx context.Context, tyreID int64) ([]domain.Review, error) {
	var out []domain.Review
	err := s.retry(ctx, "list reviews", func() error {
		var err error
		out, err = s.repo.ListReviews(ctx, tyreID)
		return err
	})
	return out, err
}

// AddReview stores one review per user and tyre.
func (s *Service) AddReview(ctx context.Context, r *domain.Review) error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	r.Comment = strings.TrimSpace(r.Comment)
	if err := s.repo.CreateReview(ctx, r); err != nil {
		return err
	}
	return nil
}

// retry runs a read once more when the driver reports a dead connection.
func (s *Service) retry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, driver.ErrBadConn) || ctx.Err() != nil {
		return err
	}
	s.log.WarnContext(ctx, "retrying catalog read", slog.String("op", op), slog.Any("error", err))
	if err := fn(); err != nil {
		return fmt.Errorf("%s after retry: %w", op, err)
	}
	return nil
}
