package checkout

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/payment"
	r "github.com/fjod/athometyre/internal/repository"
	"github.com/fjod/athometyre/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartInvalidator drops a user's cached cart after checkout.
type CartInvalidator interface {
	Invalidate(ctx context.Context, userID int64)
}

type Result struct {
	Order *domain.Order
	// Replayed is true when the order was created by an earlier request
	// with the same idempotency key.
	Replayed bool
}

type Service struct {
	repo           r.CheckoutRepository
	gateway        payment.Gateway
	carts          CartInvalidator
	pricing        PricingConfig
	paymentTimeout time.Duration
	log            *slog.Logger

	now    func() time.Time
	random io.Reader
}

func NewService(
	repo r.CheckoutRepository,
	gateway payment.Gateway,
	carts CartInvalidator,
	pricing PricingConfig,
	paymentTimeout time.Duration,
	log *slog.Logger,
) *Service {
	if paymentTimeout <= 0 {
		paymentTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:           repo,
		gateway:        gateway,
		carts:          carts,
		pricing:        pricing,
		paymentTimeout: paymentTimeout,
		log:            log,
		now:            time.Now,
		random:         rand.Reader,
	}
}

// PlaceOrder turns the user's cart into an order. Stock, cart, order,
// payment, outbox event and the idempotency record change in one
// transaction; a request repeated with the same key returns the first order.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, req Request) (*Result, error) {
	// A client that disconnects does not abort the checkout; the request
	// deadline still does.
	ctx, cancel := detach(ctx)
	defer cancel()

	req, err := req.normalize()
	if err != nil {
		return nil, err
	}
	requestHash := req.hash()

	session, created, err := s.repo.ClaimCheckoutSession(ctx, &domain.CheckoutSession{
		UserID:         userID,
		IdempotencyKey: req.IdempotencyKey,
		RequestHash:    requestHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if !created {
		return s.replay(ctx, session, requestHash)
	}

	log := s.log.With(
		slog.Int64("user_id", userID),
		slog.String("checkout_id", session.ID.String()),
		slog.String("idempotency_key", req.IdempotencyKey))

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.release(ctx, log, session.ID)
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	p := &placement{
		svc:     s,
		req:     req,
		user:    user,
		session: session,
		log:     log,
	}
	order, err := p.run(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, p, err)
	}

	if s.carts != nil {
		s.carts.Invalidate(ctx, userID)
	}
	log.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID.String()),
		slog.String("order_number", order.OrderNumber),
		slog.String("total", order.TotalAmount.StringFixed(2)),
		slog.String("payment_method", string(order.PaymentMethod)))
	return &Result{Order: order}, nil
}

func (s *Service) replay(ctx context.Context, session *domain.CheckoutSession, requestHash string) (*Result, error) {
	if session.RequestHash != requestHash {
		return nil, &IdempotencyConflictError{}
	}
	switch session.Status {
	case domain.CheckoutStatusCompleted:
		if session.OrderID == nil {
			return nil, fmt.Errorf("completed checkout %s has no order", session.ID)
		}
		order, err := s.repo.GetOrder(ctx, *session.OrderID)
		if err != nil {
			return nil, fmt.Errorf("failed to load replayed order: %w", err)
		}
		s.log.InfoContext(ctx, "duplicate checkout request replayed",
			slog.String("checkout_id", session.ID.String()),
			slog.String("order_id", order.ID.String()))
		return &Result{Order: order, Replayed: true}, nil
	case domain.CheckoutStatusReconcile:
		return nil, &CheckoutInProgressError{Reconciling: true}
	default:
		return nil, &CheckoutInProgressError{}
	}
}

// fail decides what happens to the idempotency record after a failed
// placement and returns the error for the caller.
func (s *Service) fail(ctx context.Context, log *slog.Logger, p *placement, err error) error {
	var timeout *PaymentTimeoutError
	switch {
	case p.charge != nil:
		s.reconcile(ctx, log, p.session.ID, "order not stored after charge "+p.charge.TransactionID)
		log.ErrorContext(ctx, "customer charged but order not stored",
			logger.Reconciliation,
			slog.String("transaction_id", p.charge.TransactionID),
			slog.String("amount", p.total.StringFixed(2)),
			slog.Any("error", err))
		var coded CodedError
		if errors.As(err, &coded) {
			// stock or coupon changed under a charge: still a persistence failure
			err = fmt.Errorf("%s: %w", coded.Code(), err)
		}
		return &OrderPersistenceError{TransactionID: p.charge.TransactionID, Err: err}
	case errors.As(err, &timeout):
		s.reconcile(ctx, log, p.session.ID, "payment outcome unknown")
		log.ErrorContext(ctx, "payment outcome unknown",
			logger.Reconciliation,
			slog.String("gateway_key", chargeKey(p.user.ID, p.req.IdempotencyKey)),
			slog.String("amount", p.total.StringFixed(2)),
			slog.Any("error", timeout.Err))
		return err
	}

	s.release(ctx, log, p.session.ID)

	var coded CodedError
	if errors.As(err, &coded) {
		log.InfoContext(ctx, "checkout rejected", slog.String("code", coded.Code()), slog.String("reason", err.Error()))
		return err
	}
	log.ErrorContext(ctx, "checkout failed", slog.Any("error", err))
	return fmt.Errorf("failed to place order: %w", err)
}

func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(context.WithoutCancel(ctx))
	}
	return context.WithDeadline(context.WithoutCancel(ctx), deadline)
}

// chargeKey is the gateway idempotency key for a checkout. It depends only
// on the customer and their idempotency key, so every attempt under that
// key reaches the gateway as the same charge.
func chargeKey(userID int64, idempotencyKey string) string {
	return uuid.NewSHA1(chargeNamespace, []byte(strconv.FormatInt(userID, 10)+"/"+idempotencyKey)).String()
}

var chargeNamespace = uuid.MustParse("6f1d2c8e-4b7a-5e3f-9c1d-a2b4c6d8e0f1")

func (s *Service) release(ctx context.Context, log *slog.Logger, sessionID uuid.UUID) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.repo.ReleaseCheckoutSession(cctx, sessionID); err != nil {
		log.ErrorContext(ctx, "failed to release checkout session", slog.Any("error", err))
	}
}

func (s *Service) reconcile(ctx context.Context, log *slog.Logger, sessionID uuid.UUID, reason string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.repo.MarkSessionReconcile(cctx, sessionID, reason); err != nil {
		log.ErrorContext(ctx, "failed to mark checkout for reconciliation",
			logger.Reconciliation, slog.Any("error", err))
	}
}

// placement is the state of one checkout attempt.
type placement struct {
	svc     *Service
	req     Request
	user    *domain.User
	session *domain.CheckoutSession
	log     *slog.Logger

	total  decimal.Decimal
	charge *payment.ChargeResult
}

func (p *placement) run(ctx context.Context) (*domain.Order, error) {
	var order *domain.Order
	err := p.svc.repo.InCheckoutTx(ctx, func(tx r.CheckoutTx) error {
		lines, err := tx.LockCartLines(ctx, p.user.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return &EmptyCartError{}
		}
		for _, l := range lines {
			if l.Stock < l.Quantity {
				return &InsufficientStockError{ProductID: l.TyreID, Requested: l.Quantity, Available: l.Stock}
			}
		}

		coupon, err := p.coupon(ctx, tx)
		if err != nil {
			return err
		}
		quote, err := p.svc.pricing.Price(lines, coupon, p.svc.now())
		if err != nil {
			return err
		}
		p.total = quote.Total

		number, err := p.orderNumber(ctx, tx)
		if err != nil {
			return err
		}

		o := p.buildOrder(number, lines, quote)
		if err := p.pay(ctx, o); err != nil {
			return err
		}

		tyreIDs := make([]int64, 0, len(lines))
		for _, l := range lines {
			if err := tx.DecrementStock(ctx, l.TyreID, l.Quantity); err != nil {
				if errors.Is(err, r.ErrInsufficientStock) {
					return &InsufficientStockError{ProductID: l.TyreID, Requested: l.Quantity, Available: l.Stock}
				}
				return err
			}
			tyreIDs = append(tyreIDs, l.TyreID)
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.ClearCartLines(ctx, p.user.ID, tyreIDs); err != nil {
			return err
		}
		if err := tx.AppendOutbox(ctx, o.ID.String(), domain.EventOrderPlaced, p.event(o)); err != nil {
			return err
		}
		if err := tx.CompleteCheckoutSession(ctx, p.session.ID, o.ID); err != nil {
			return err
		}
		order = o
		return nil
	})
	if errors.Is(err, r.ErrLockTimeout) && p.charge == nil {
		return nil, &CheckoutBusyError{}
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (p *placement) coupon(ctx context.Context, tx r.CheckoutTx) (*domain.Coupon, error) {
	if p.req.CouponCode == "" {
		return nil, nil
	}
	c, err := tx.GetCoupon(ctx, p.req.CouponCode)
	if errors.Is(err, r.ErrCouponNotFound) {
		return nil, &InvalidCouponError{Coupon: p.req.CouponCode, Reason: "unknown coupon"}
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *placement) orderNumber(ctx context.Context, tx r.CheckoutTx) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		number, err := newOrderNumber(p.svc.now(), p.svc.random)
		if err != nil {
			return "", err
		}
		exists, err := tx.OrderNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
		p.log.WarnContext(ctx, "order number collision", slog.String("order_number", number))
	}
	return "", fmt.Errorf("could not generate a unique order number after %d attempts", orderNumberAttempts)
}

func (p *placement) buildOrder(number string, lines []domain.CartLine, q Quote) *domain.Order {
	o := &domain.Order{
		ID:              uuid.New(),
		UserID:          p.user.ID,
		OrderNumber:     number,
		Subtotal:        q.Subtotal,
		DiscountAmount:  q.Discount,
		ShippingAmount:  q.Shipping,
		TotalAmount:     q.Total,
		Currency:        p.svc.pricing.Currency,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentMethod:   p.req.PaymentMethod,
		ShippingAddress: p.req.ShippingAddress,
		BillingAddress:  *p.req.BillingAddress,
		CouponCode:      p.req.CouponCode,
		Notes:           p.req.Notes,
		IdempotencyKey:  p.req.IdempotencyKey,
		Items:           make([]domain.OrderItem, 0, len(lines)),
	}
	for _, l := range lines {
		o.Items = append(o.Items, domain.OrderItem{
			ID:         uuid.New(),
			OrderID:    o.ID,
			TyreID:     l.TyreID,
			TyreName:   l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			TotalPrice: l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
		})
	}
	return o
}

// pay charges the customer and sets the order's payment fields. Cash on
// delivery skips the gateway and stays PENDING until delivery.
func (p *placement) pay(ctx context.Context, o *domain.Order) error {
	o.Payment = &domain.Payment{
		ID:            uuid.New(),
		OrderID:       o.ID,
		Amount:        o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		Status:        domain.PaymentStatusPending,
	}
	if !o.PaymentMethod.RequiresGateway() {
		o.Status = domain.OrderStatusConfirmed
		o.Payment.GatewayResponse = domain.GatewayResponse{Provider: "cod", Status: "pending"}
		return nil
	}

	payCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.svc.paymentTimeout)
	defer cancel()

	res, err := p.svc.gateway.Charge(payCtx, payment.ChargeRequest{
		Reference:      o.OrderNumber,
		IdempotencyKey: chargeKey(p.user.ID, p.req.IdempotencyKey),
		Amount:         o.TotalAmount,
		Currency:       o.Currency,
		Method:         string(o.PaymentMethod),
		CustomerEmail:  p.customerEmail(),
	})
	if err != nil {
		var decline *payment.DeclineError
		switch {
		case errors.As(err, &decline):
			return &PaymentFailedError{Reason: decline.Reason}
		case errors.Is(err, payment.ErrDeclined):
			return &PaymentFailedError{Reason: err.Error()}
		case errors.Is(err, payment.ErrUnavailable) && !errors.Is(err, payment.ErrTimeout):
			return &PaymentUnavailableError{Err: err}
		default:
			// the charge may have gone through
			return &PaymentTimeoutError{Err: err}
		}
	}

	p.charge = res
	rctx, rcancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer rcancel()
	if err := p.svc.repo.RecordSessionCharge(rctx, p.session.ID, res.TransactionID); err != nil {
		p.log.ErrorContext(ctx, "failed to record charge on checkout session",
			logger.Reconciliation,
			slog.String("transaction_id", res.TransactionID),
			slog.Any("error", err))
	}

	o.Status = domain.OrderStatusConfirmed
	o.PaymentStatus = domain.PaymentStatusPaid
	o.Payment.Status = domain.PaymentStatusPaid
	o.Payment.TransactionID = res.TransactionID
	o.Payment.GatewayResponse = res.Response
	return nil
}

func (p *placement) customerEmail() string {
	if p.req.Customer.Email != "" {
		return p.req.Customer.Email
	}
	return p.user.Email
}

func (p *placement) event(o *domain.Order) domain.OrderPlacedEvent {
	name := p.req.Customer.Name
	if name == "" {
		name = p.user.Name
	}
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return domain.OrderPlacedEvent{
		OrderID:       o.ID.String(),
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		CustomerEmail: p.customerEmail(),
		CustomerName:  name,
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		ItemCount:     count,
		PlacedAt:      p.svc.now().UTC(),
	}
}
