package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/payment"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/fjod/athometyre/pkg/logger"
	"github.com/google/uuid"
)

const defaultListLimit = 50

const refundTimeout = 10 * time.Second

var (
	ErrOrderNotFound     = repository.ErrOrderNotFound
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrIllegalTransition = repository.ErrIllegalTransition
	ErrRefundRequired    = repository.ErrRefundRequired
	ErrRefundFailed      = errors.New("refund failed")
)

type Service struct {
	repo    repository.OrderRepository
	gateway payment.Gateway
	log     *slog.Logger
}

// NewService builds the order service. gateway refunds paid orders on
// cancellation; with a nil gateway paid orders cannot be cancelled.
func NewService(repo repository.OrderRepository, gateway payment.Gateway, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, gateway: gateway, log: log}
}

// GetOrder returns the order when the caller owns it or is staff. Other
// callers get ErrOrderNotFound so order ids cannot be probed.
func (s *Service) GetOrder(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != who.UserID && !who.IsAdmin() {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, who domain.Identity, limit int) ([]domain.Order, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	orders, err := s.repo.ListOrdersByUser(ctx, who.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// UpdateStatus is the staff operation that moves an order through
// fulfillment.
func (s *Service) UpdateStatus(ctx context.Context, who domain.Identity, id uuid.UUID, status string) (*domain.Order, error) {
	next := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}
	o, err := s.repo.UpdateOrderStatus(ctx, id, next, s.refund)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "order status changed",
		slog.String("order_number", o.OrderNumber),
		slog.String("status", o.Status.String()),
		slog.String("payment_status", string(o.PaymentStatus)),
		slog.Int64("actor_id", who.UserID))
	return o, nil
}

// refund returns a paid order's money. The key is fixed per order, so a
// cancel retried after an unknown outcome refunds at most once.
func (s *Service) refund(ctx context.Context, o *domain.Order) (*domain.GatewayResponse, error) {
	if s.gateway == nil || o.Payment == nil || o.Payment.TransactionID == "" {
		return nil, ErrRefundRequired
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refundTimeout)
	defer cancel()

	res, err := s.gateway.Refund(rctx, payment.RefundRequest{
		TransactionID:  o.Payment.TransactionID,
		IdempotencyKey: "refund-" + o.ID.String(),
		Amount:         o.Payment.Amount,
		Currency:       o.Currency,
		Reference:      o.OrderNumber,
	})
	if err != nil {
		log := s.log.With(
			slog.String("order_number", o.OrderNumber),
			slog.String("transaction_id", o.Payment.TransactionID),
			slog.Any("error", err))
		if errors.Is(err, payment.ErrTimeout) {
			log.ErrorContext(ctx, "refund outcome unknown", logger.Reconciliation)
		} else {
			log.WarnContext(ctx, "refund refused")
		}
		return nil, fmt.Errorf("%w: %w", ErrRefundFailed, err)
	}
	s.log.InfoContext(ctx, "order refunded",
		slog.String("order_number", o.OrderNumber),
		slog.String("refund_id", res.RefundID),
		slog.String("amount", o.Payment.Amount.StringFixed(2)))
	return &res.Response, nil
}
