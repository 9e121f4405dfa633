package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fjod/athometyre/internal/booking"
	"github.com/fjod/athometyre/internal/cart"
	"github.com/fjod/athometyre/internal/catalog"
	"github.com/fjod/athometyre/internal/checkout"
	"github.com/fjod/athometyre/internal/content"
	"github.com/fjod/athometyre/internal/dashboard"
	"github.com/fjod/athometyre/internal/i18n"
	"github.com/fjod/athometyre/internal/inventory"
	"github.com/fjod/athometyre/internal/orders"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

var checkoutStatus = map[string]int{
	"empty_cart":             http.StatusUnprocessableEntity,
	"insufficient_stock":     http.StatusConflict,
	"invalid_address":        http.StatusBadRequest,
	"invalid_payment_method": http.StatusBadRequest,
	"invalid_coupon":         http.StatusUnprocessableEntity,
	"payment_failed":         http.StatusPaymentRequired,
	"payment_timeout":        http.StatusGatewayTimeout,
	"payment_unavailable":    http.StatusServiceUnavailable,
	"order_persistence":      http.StatusInternalServerError,
	"checkout_in_progress":   http.StatusConflict,
	"checkout_busy":          http.StatusServiceUnavailable,
	"idempotency_conflict":   http.StatusUnprocessableEntity,
	"invalid_request":        http.StatusBadRequest,
}

var notFoundErrors = []error{
	repository.ErrNotFound,
	repository.ErrProductNotFound,
	repository.ErrOrderNotFound,
	repository.ErrUserNotFound,
	repository.ErrDealerNotFound,
	repository.ErrBookingNotFound,
	repository.ErrCartItemNotFound,
	content.ErrPageNotFound,
	i18n.ErrUnsupportedLanguage,
}

var validationErrors = []error{
	cart.ErrInvalidQuantity,
	catalog.ErrInvalidRating,
	catalog.ErrInvalidSort,
	catalog.ErrInvalidPriceRange,
	catalog.ErrInvalidFinder,
	inventory.ErrReasonRequired,
	inventory.ErrInvalidQuantity,
	inventory.ErrInvalidAdjustmentType,
	dashboard.ErrInvalidTier,
	orders.ErrInvalidStatus,
	booking.ErrInvalidServiceType,
	booking.ErrScheduleInPast,
	booking.ErrVehicleRequired,
	booking.ErrNotesTooLong,
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondErr maps a service error to its HTTP status and error code.
func respondErr(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var coded checkout.CodedError
	if errors.As(err, &coded) {
		status, ok := checkoutStatus[coded.Code()]
		if !ok {
			status = http.StatusBadRequest
		}
		if status >= http.StatusInternalServerError {
			log.ErrorContext(r.Context(), "checkout failed", slog.String("code", coded.Code()), slog.Any("error", err))
		}
		respondJSON(w, status, ErrorResponse{Error: coded.Error(), Code: coded.Code(), Details: coded.Details()})
		return
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			respondError(w, http.StatusNotFound, "not_found", target.Error())
			return
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, repository.ErrDuplicateReview):
		respondError(w, http.StatusConflict, "duplicate_review", err.Error())
	case errors.Is(err, repository.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, orders.ErrRefundRequired):
		respondError(w, http.StatusConflict, "refund_required", err.Error())
	case errors.Is(err, orders.ErrRefundFailed):
		log.WarnContext(r.Context(), "refund failed", slog.Any("error", err))
		respondError(w, http.StatusBadGateway, "refund_failed", "refund could not be completed, the order was not cancelled")
	case errors.Is(err, repository.ErrIllegalBookingMove):
		respondError(w, http.StatusConflict, "booking_not_cancellable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		log.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_"+name, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_"+name, fmt.Sprintf("%s must be a UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
