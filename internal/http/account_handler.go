package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/athometyre/internal/booking"
	"github.com/fjod/athometyre/internal/dashboard"
	"github.com/fjod/athometyre/internal/domain"
	"github.com/google/uuid"
)

type DashboardService interface {
	DealerStats(ctx context.Context, userID int64) (*dashboard.DealerStats, error)
	CustomerStats(ctx context.Context, userID int64) (*dashboard.CustomerStats, error)
}

type BookingService interface {
	Create(ctx context.Context, userID int64, req booking.Request) (*domain.ServiceBooking, error)
	List(ctx context.Context, userID int64) ([]domain.ServiceBooking, error)
	Cancel(ctx context.Context, userID int64, id uuid.UUID) (*domain.ServiceBooking, error)
}

// AccountHandler serves the signed-in user's dashboards and bookings.
type AccountHandler struct {
	dashboard DashboardService
	bookings  BookingService
	timeout   time.Duration
	log       *slog.Logger
}

func NewAccountHandler(d DashboardService, b BookingService, timeout time.Duration, log *slog.Logger) *AccountHandler {
	return &AccountHandler{dashboard: d, bookings: b, timeout: timeout, log: log}
}

// GET /api/dealer/stats
func (h *AccountHandler) DealerStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	st, err := h.dashboard.DealerStats(ctx, uid)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// GET /api/customer/stats
func (h *AccountHandler) CustomerStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	st, err := h.dashboard.CustomerStats(ctx, uid)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// GET /api/bookings
func (h *AccountHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := h.bookings.List(ctx, uid)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": list})
}

// POST /api/bookings
func (h *AccountHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req booking.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.bookings.Create(ctx, uid, req)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

// POST /api/bookings/{id}/cancel
func (h *AccountHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Cancel(ctx, uid, id)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}
