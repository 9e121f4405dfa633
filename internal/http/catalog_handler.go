package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/athometyre/internal/catalog"
	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/shopspring/decimal"
)

type CatalogService interface {
	ListTyres(ctx context.Context, f catalog.Filter) (*catalog.Page, error)
	GetTyre(ctx context.Context, id int64) (*domain.Tyre, error)
	FindTyres(ctx context.Context, q catalog.Finder) ([]domain.Tyre, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
	ListReviews(ctx context.Context, tyreID int64) ([]domain.Review, error)
	AddReview(ctx context.Context, r *domain.Review) error
}

type CatalogHandler struct {
	catalog CatalogService
	timeout time.Duration
	log     *slog.Logger
}

func NewCatalogHandler(svc CatalogService, timeout time.Duration, log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: svc, timeout: timeout, log: log}
}

type AddReviewRequestDTO struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type TyresResponse struct {
	Items []domain.Tyre `json:"items"`
}

// GET /api/tyres
func (h *CatalogHandler) ListTyres(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	page, err := h.catalog.ListTyres(ctx, f)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func parseFilter(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	f := catalog.Filter{
		Season:      domain.Season(strings.ToUpper(q.Get("season"))),
		VehicleType: domain.VehicleType(strings.ToUpper(q.Get("vehicleType"))),
		InStock:     q.Get("inStock") == "true",
		Query:       q.Get("q"),
		Sort:        repository.TyreSort(q.Get("sort")),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"width", &f.Width},
		{"aspectRatio", &f.AspectRatio},
		{"rimDiameter", &f.RimDiameter},
		{"page", &f.Page},
		{"pageSize", &f.PageSize},
	}
	for _, p := range ints {
		n, err := queryInt(r, p.name)
		if err != nil {
			return f, err
		}
		*p.dst = n
	}
	brand, err := queryInt(r, "brandId")
	if err != nil {
		return f, err
	}
	f.BrandID = int64(brand)

	for name, dst := range map[string]**decimal.Decimal{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, fmt.Errorf("%s must be a number", name)
		}
		*dst = &d
	}
	return f, nil
}

// GET /api/tyres/{id}
func (h *CatalogHandler) GetTyre(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.catalog.GetTyre(ctx, id)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// GET /api/tyre-finder
func (h *CatalogHandler) FindTyres(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := catalog.Finder{
		Make:  r.URL.Query().Get("make"),
		Model: r.URL.Query().Get("model"),
	}
	for name, dst := range map[string]*int{
		"year": &q.Year, "width": &q.Width, "aspectRatio": &q.AspectRatio, "rimDiameter": &q.RimDiameter,
	} {
		n, err := queryInt(r, name)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_query", err.Error())
			return
		}
		*dst = n
	}

	items, err := h.catalog.FindTyres(ctx, q)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	if items == nil {
		items = []domain.Tyre{}
	}
	respondJSON(w, http.StatusOK, TyresResponse{Items: items})
}

// GET /api/brands
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	brands, err := h.catalog.ListBrands(ctx)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	if brands == nil {
		brands = []domain.Brand{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": brands})
}

// GET /api/tyres/{id}/reviews
func (h *CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reviews, err := h.catalog.ListReviews(ctx, id)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": reviews})
}

// POST /api/tyres/{id}/reviews
func (h *CatalogHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	who := identityFrom(r.Context())
	if who.UserID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req AddReviewRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	review := &domain.Review{UserID: who.UserID, TyreID: id, Rating: req.Rating, Comment: req.Comment}
	if err := h.catalog.AddReview(ctx, review); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}
