package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/athometyre/internal/checkout"
	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/pkg/metrics"
)

type CheckoutService interface {
	PlaceOrder(ctx context.Context, userID int64, req checkout.Request) (*checkout.Result, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	metrics  *metrics.ServerMetrics
	timeout  time.Duration
	log      *slog.Logger
}

func NewCheckoutHandler(svc CheckoutService, m *metrics.ServerMetrics, timeout time.Duration, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, metrics: m, timeout: timeout, log: log}
}

type CheckoutRequestDTO struct {
	IdempotencyKey  string               `json:"idempotencyKey"`
	ShippingAddress domain.Address       `json:"shippingAddress"`
	BillingAddress  *domain.Address      `json:"billingAddress,omitempty"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	CouponCode      string               `json:"couponCode,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Customer        checkout.Customer    `json:"customer"`
}

type CheckoutResponseDTO struct {
	Order *domain.Order `json:"order"`
}

// POST /api/checkout. The idempotency key comes from the Idempotency-Key
// header, or the body when the header is absent.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		key = req.IdempotencyKey
	}

	res, err := h.checkout.PlaceOrder(ctx, uid, checkout.Request{
		IdempotencyKey:  key,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
		Customer:        req.Customer,
	})
	if err != nil {
		h.count(outcome(err))
		respondErr(w, r, h.log, err)
		return
	}

	if res.Replayed {
		h.count("replayed")
		w.Header().Set("Idempotent-Replay", "true")
		respondJSON(w, http.StatusOK, CheckoutResponseDTO{Order: res.Order})
		return
	}
	h.count("placed")
	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{Order: res.Order})
}

func (h *CheckoutHandler) count(outcome string) {
	if h.metrics != nil {
		h.metrics.Checkouts.WithLabelValues(outcome).Inc()
	}
}

func outcome(err error) string {
	var coded checkout.CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return "error"
}
