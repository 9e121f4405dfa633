package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/inventory"
)

type InventoryService interface {
	AdjustStock(ctx context.Context, a inventory.Adjustment) (*inventory.Result, error)
	Overview(ctx context.Context, status domain.StockStatus) (*inventory.Overview, error)
	History(ctx context.Context, productID int64, limit int) ([]domain.StockAdjustment, error)
}

type TierSetter interface {
	SetTier(ctx context.Context, dealerID int64, level int, actorID int64) (domain.Tier, error)
}

// AdminHandler serves the staff-only inventory and dealer endpoints.
type AdminHandler struct {
	inventory InventoryService
	tiers     TierSetter
	timeout   time.Duration
	log       *slog.Logger
}

func NewAdminHandler(inv InventoryService, tiers TierSetter, timeout time.Duration, log *slog.Logger) *AdminHandler {
	return &AdminHandler{inventory: inv, tiers: tiers, timeout: timeout, log: log}
}

type AdjustStockRequestDTO struct {
	Type     string `json:"adjustmentType"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
	Notes    string `json:"notes,omitempty"`
}

type SetTierRequestDTO struct {
	Level int `json:"tierLevel"`
}

// GET /api/admin/inventory?status=LOW
func (h *AdminHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := domain.StockStatus(strings.ToUpper(r.URL.Query().Get("status")))
	switch status {
	case "", domain.StockOut, domain.StockLow, domain.StockNormal, domain.StockHigh:
	default:
		respondError(w, http.StatusBadRequest, "invalid_query", "status must be OUT, LOW, NORMAL or HIGH")
		return
	}
	ov, err := h.inventory.Overview(ctx, status)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, ov)
}

// POST /api/admin/inventory/{tyreId}/adjust
func (h *AdminHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tyreID, ok := pathID(w, r, "tyreId")
	if !ok {
		return
	}
	var req AdjustStockRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.inventory.AdjustStock(ctx, inventory.Adjustment{
		ProductID: tyreID,
		Type:      domain.AdjustmentType(req.Type),
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		Notes:     req.Notes,
		ActorID:   identityFrom(r.Context()).UserID,
	})
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GET /api/admin/inventory/{tyreId}/history
func (h *AdminHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tyreID, ok := pathID(w, r, "tyreId")
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	rows, err := h.inventory.History(ctx, tyreID, limit)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	if rows == nil {
		rows = []domain.StockAdjustment{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": rows})
}

// PUT /api/admin/dealers/{id}/tier
func (h *AdminHandler) SetTier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	dealerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req SetTierRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	tier, err := h.tiers.SetTier(ctx, dealerID, req.Level, identityFrom(r.Context()).UserID)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"dealerId": dealerID, "tier": tier})
}
