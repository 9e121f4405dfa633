package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/google/uuid"
)

type OrderService interface {
	GetOrder(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, who domain.Identity, limit int) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, who domain.Identity, id uuid.UUID, status string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
	log     *slog.Logger
}

func NewOrdersHandler(svc OrderService, timeout time.Duration, log *slog.Logger) *OrdersHandler {
	return &OrdersHandler{orders: svc, timeout: timeout, log: log}
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

// GET /api/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, ok := userID(w, r); !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	list, err := h.orders.ListOrders(ctx, identityFrom(r.Context()), limit)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": list})
}

// GET /api/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, ok := userID(w, r); !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(ctx, identityFrom(r.Context()), id)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// PATCH /api/admin/orders/{id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.orders.UpdateStatus(ctx, identityFrom(r.Context()), id, req.Status)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}
