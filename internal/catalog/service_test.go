package catalog

import (
	"context"
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	failures   int
	calls      int
	lastFilter repository.TyreFilter
	lastQuery  repository.VehicleQuery
	tyres      []domain.Tyre
	reviewErr  error
}

func (m *mockCatalog) fail() error {
	m.calls++
	if m.failures > 0 {
		m.failures--
		return fmt.Errorf("query tyres: %w", driver.ErrBadConn)
	}
	return nil
}

func (m *mockCatalog) ListTyres(_ context.Context, f repository.TyreFilter) ([]domain.Tyre, int, error) {
	if err := m.fail(); err != nil {
		return nil, 0, err
	}
	m.lastFilter = f
	return m.tyres, 42, nil
}

func (m *mockCatalog) GetTyre(_ context.Context, id int64) (*domain.Tyre, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	if id == 404 {
		return nil, repository.ErrProductNotFound
	}
	return &domain.Tyre{ID: id}, nil
}

func (m *mockCatalog) FindTyresForVehicle(_ context.Context, q repository.VehicleQuery) ([]domain.Tyre, error) {
	m.lastQuery = q
	return m.tyres, nil
}

func (m *mockCatalog) ListBrands(context.Context) ([]domain.Brand, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	return []domain.Brand{{ID: 1, Name: "Apollo"}}, nil
}

func (m *mockCatalog) ListReviews(context.Context, int64) ([]domain.Review, error) {
	return []domain.Review{}, nil
}

func (m *mockCatalog) CreateReview(_ context.Context, r *domain.Review) error {
	if m.reviewErr != nil {
		return m.reviewErr
	}
	r.ID = 1
	return nil
}

func TestListTyres_PaginationDefaults(t *testing.T) {
	repo := &mockCatalog{}
	svc := NewService(repo, nil)

	page, err := svc.ListTyres(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Equal(t, 42, page.Total)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, repo.lastFilter.Offset)

	page, err = svc.ListTyres(context.Background(), Filter{Page: 3, PageSize: 500, Query: "  alnac "})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.PageSize)
	assert.Equal(t, 200, repo.lastFilter.Offset)
	assert.Equal(t, "alnac", repo.lastFilter.Query)
}

func TestListTyres_Validation(t *testing.T) {
	svc := NewService(&mockCatalog{}, nil)

	_, err := svc.ListTyres(context.Background(), Filter{Sort: "cheapest"})
	assert.ErrorIs(t, err, ErrInvalidSort)

	lo, hi := decimal.NewFromInt(5000), decimal.NewFromInt(1000)
	_, err = svc.ListTyres(context.Background(), Filter{MinPrice: &lo, MaxPrice: &hi})
	assert.ErrorIs(t, err, ErrInvalidPriceRange)
}

func TestReads_RetryOnceOnBadConn(t *testing.T) {
	repo := &mockCatalog{failures: 1}
	svc := NewService(repo, nil)

	_, err := svc.ListBrands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)

	repo = &mockCatalog{failures: 2}
	svc = NewService(repo, nil)
	_, err = svc.GetTyre(context.Background(), 1)
	require.ErrorIs(t, err, driver.ErrBadConn)
	assert.Equal(t, 2, repo.calls, "only one retry")
}

func TestReads_NoRetryOnOtherErrors(t *testing.T) {
	repo := &mockCatalog{}
	svc := NewService(repo, nil)

	_, err := svc.GetTyre(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
	assert.Equal(t, 1, repo.calls)
}

func TestFindTyres(t *testing.T) {
	repo := &mockCatalog{tyres: []domain.Tyre{{ID: 1}}}
	svc := NewService(repo, nil)
	ctx := context.Background()

	out, err := svc.FindTyres(ctx, Finder{Make: " Maruti ", Model: "Swift", Year: 2019})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, repository.VehicleQuery{Make: "Maruti", Model: "Swift", Year: 2019}, repo.lastQuery)

	_, err = svc.FindTyres(ctx, Finder{Width: 185, AspectRatio: 65, RimDiameter: 15})
	require.NoError(t, err)
	assert.Equal(t, 185, repo.lastFilter.Width)
	assert.Equal(t, repository.SortPriceAsc, repo.lastFilter.Sort)

	_, err = svc.FindTyres(ctx, Finder{Width: 185})
	assert.ErrorIs(t, err, ErrInvalidFinder)
}

func TestAddReview(t *testing.T) {
	repo := &mockCatalog{}
	svc := NewService(repo, nil)

	assert.ErrorIs(t, svc.AddReview(context.Background(), &domain.Review{Rating: 0}), ErrInvalidRating)
	assert.ErrorIs(t, svc.AddReview(context.Background(), &domain.Review{Rating: 6}), ErrInvalidRating)

	r := &domain.Review{Rating: 5, Comment: " great grip "}
	require.NoError(t, svc.AddReview(context.Background(), r))
	assert.Equal(t, "great grip", r.Comment)

	repo.reviewErr = repository.ErrDuplicateReview
	assert.ErrorIs(t, svc.AddReview(context.Background(), &domain.Review{Rating: 4}), repository.ErrDuplicateReview)
}
