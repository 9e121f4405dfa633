package inventory

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/fjod/athometyre/pkg/logger"
	"github.com/fjod/athometyre/pkg/metrics"
	"github.com/shopspring/decimal"
)

var (
	ErrReasonRequired        = errors.New("adjustment reason is required")
	ErrInvalidQuantity       = errors.New("adjustment quantity must not be negative")
	ErrInvalidAdjustmentType = errors.New("adjustment type must be ADD, REMOVE or SET")
	ErrProductNotFound       = repository.ErrProductNotFound
)

type Adjustment struct {
	ProductID int64
	Type      domain.AdjustmentType
	Quantity  int
	Reason    string
	Notes     string
	ActorID   int64
}

type Result struct {
	Adjustment *domain.StockAdjustment `json:"adjustment"`
	Tyre       *domain.Tyre            `json:"tyre"`
	Status     domain.StockStatus      `json:"status"`
}

type Totals struct {
	TotalProducts int             `json:"totalProducts"`
	OutOfStock    int             `json:"outOfStock"`
	LowStock      int             `json:"lowStock"`
	TotalUnits    int             `json:"totalUnits"`
	StockValue    decimal.Decimal `json:"stockValue"`
}

type Overview struct {
	Items  []domain.StockLevel `json:"items"`
	Totals Totals              `json:"totals"`
}

type Service struct {
	repo    repository.InventoryRepository
	metrics *metrics.ServerMetrics
	log     *slog.Logger
}

func NewService(repo repository.InventoryRepository, m *metrics.ServerMetrics, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, metrics: m, log: log}
}

// StockStatus labels a stock level against its reorder point and maximum.
func StockStatus(stock, reorderPoint, maxStock int) domain.StockStatus {
	switch {
	case stock <= 0:
		return domain.StockOut
	case stock < reorderPoint:
		return domain.StockLow
	case stock > maxStock:
		return domain.StockHigh
	default:
		return domain.StockNormal
	}
}

// Apply computes the new stock level. Removing more than is on hand
// leaves zero and marks the adjustment clamped.
func Apply(current int, t domain.AdjustmentType, quantity int) (newStock int, clamped bool) {
	switch t {
	case domain.AdjustmentAdd:
		return current + quantity, false
	case domain.AdjustmentRemove:
		if quantity > current {
			return 0, true
		}
		return current - quantity, false
	default:
		return quantity, false
	}
}

func (s *Service) AdjustStock(ctx context.Context, a Adjustment) (*Result, error) {
	a.Type = domain.AdjustmentType(strings.ToUpper(strings.TrimSpace(string(a.Type))))
	if !a.Type.Valid() {
		return nil, ErrInvalidAdjustmentType
	}
	if a.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	a.Reason = strings.TrimSpace(a.Reason)
	if a.Reason == "" {
		return nil, ErrReasonRequired
	}

	adj, tyre, err := s.repo.AdjustStock(ctx, a.ProductID, func(current int) domain.StockAdjustment {
		next, clamped := Apply(current, a.Type, a.Quantity)
		return domain.StockAdjustment{
			AdjustmentType: a.Type,
			Quantity:       a.Quantity,
			NewStock:       next,
			Clamped:        clamped,
			Reason:         a.Reason,
			Notes:          strings.TrimSpace(a.Notes),
			CreatedBy:      a.ActorID,
		}
	})
	if err != nil {
		return nil, err
	}

	log := s.log.With(
		slog.Int64("tyre_id", a.ProductID),
		slog.String("type", string(a.Type)),
		slog.Int("quantity", a.Quantity),
		slog.Int("previous_stock", adj.PreviousStock),
		slog.Int("new_stock", adj.NewStock),
		slog.Int64("actor_id", a.ActorID))
	if adj.Clamped {
		log.WarnContext(ctx, "stock removal clamped at zero", slog.Int("shortfall", a.Quantity-adj.PreviousStock))
	} else {
		log.InfoContext(ctx, "stock adjusted")
	}
	if s.metrics != nil {
		s.metrics.StockAdjusted.WithLabelValues(string(a.Type), strconv.FormatBool(adj.Clamped)).Inc()
	}

	return &Result{
		Adjustment: adj,
		Tyre:       tyre,
		Status:     StockStatus(tyre.Stock, tyre.ReorderPoint, tyre.MaxStock),
	}, nil
}

// Overview lists stock levels with status labels. An empty status keeps
// every row; totals always cover the whole catalog.
func (s *Service) Overview(ctx context.Context, status domain.StockStatus) (*Overview, error) {
	levels, err := s.repo.ListStockLevels(ctx)
	if err != nil {
		return nil, err
	}

	out := &Overview{Items: make([]domain.StockLevel, 0, len(levels))}
	out.Totals.StockValue = decimal.Zero
	for _, l := range levels {
		l.Status = StockStatus(l.Stock, l.ReorderPoint, l.MaxStock)

		out.Totals.TotalProducts++
		out.Totals.TotalUnits += l.Stock
		out.Totals.StockValue = out.Totals.StockValue.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Stock))))
		switch l.Status {
		case domain.StockOut:
			out.Totals.OutOfStock++
		case domain.StockLow:
			out.Totals.LowStock++
		}

		if status == "" || l.Status == status {
			out.Items = append(out.Items, l)
		}
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, productID int64, limit int) ([]domain.StockAdjustment, error) {
	return s.repo.ListAdjustments(ctx, productID, limit)
}
