package checkout

import (
	"fmt"
)

// CodedError is implemented by every checkout failure the caller can act on.
type CodedError interface {
	error
	Code() string
	Details() map[string]any
}

type EmptyCartError struct{}

func (e *EmptyCartError) Error() string           { return "cart is empty, nothing to checkout" }
func (e *EmptyCartError) Code() string            { return "empty_cart" }
func (e *EmptyCartError) Details() map[string]any { return nil }

type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
func (e *InsufficientStockError) Code() string { return "insufficient_stock" }
func (e *InsufficientStockError) Details() map[string]any {
	return map[string]any{"productId": e.ProductID, "requested": e.Requested, "available": e.Available}
}

type InvalidAddressError struct {
	Field string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("address field %s is required", e.Field)
}
func (e *InvalidAddressError) Code() string            { return "invalid_address" }
func (e *InvalidAddressError) Details() map[string]any { return map[string]any{"field": e.Field} }

type InvalidPaymentMethodError struct {
	Method string
}

func (e *InvalidPaymentMethodError) Error() string {
	return fmt.Sprintf("unsupported payment method %q", e.Method)
}
func (e *InvalidPaymentMethodError) Code() string            { return "invalid_payment_method" }
func (e *InvalidPaymentMethodError) Details() map[string]any { return nil }

type InvalidCouponError struct {
	Coupon string
	Reason string
}

func (e *InvalidCouponError) Error() string {
	return fmt.Sprintf("coupon %s cannot be applied: %s", e.Coupon, e.Reason)
}
func (e *InvalidCouponError) Code() string { return "invalid_coupon" }
func (e *InvalidCouponError) Details() map[string]any {
	return map[string]any{"coupon": e.Coupon, "reason": e.Reason}
}

type PaymentFailedError struct {
	Reason string
}

func (e *PaymentFailedError) Error() string           { return fmt.Sprintf("payment failed: %s", e.Reason) }
func (e *PaymentFailedError) Code() string            { return "payment_failed" }
func (e *PaymentFailedError) Details() map[string]any { return map[string]any{"reason": e.Reason} }

// PaymentTimeoutError means the charge outcome is unknown. The checkout is
// parked for reconciliation and never charged again under the same key.
type PaymentTimeoutError struct {
	Err error
}

func (e *PaymentTimeoutError) Error() string {
	return "payment gateway did not answer in time; the payment will be reconciled"
}
func (e *PaymentTimeoutError) Unwrap() error           { return e.Err }
func (e *PaymentTimeoutError) Code() string            { return "payment_timeout" }
func (e *PaymentTimeoutError) Details() map[string]any { return nil }

type PaymentUnavailableError struct {
	Err error
}

func (e *PaymentUnavailableError) Error() string {
	return fmt.Sprintf("payment gateway unavailable: %v", e.Err)
}
func (e *PaymentUnavailableError) Unwrap() error           { return e.Err }
func (e *PaymentUnavailableError) Code() string            { return "payment_unavailable" }
func (e *PaymentUnavailableError) Details() map[string]any { return nil }

// OrderPersistenceError is returned when the order could not be stored
// after the customer was charged.
type OrderPersistenceError struct {
	TransactionID string
	Err           error
}

func (e *OrderPersistenceError) Error() string {
	return fmt.Sprintf("order could not be saved after payment %s: %v", e.TransactionID, e.Err)
}
func (e *OrderPersistenceError) Unwrap() error           { return e.Err }
func (e *OrderPersistenceError) Code() string            { return "order_persistence" }
func (e *OrderPersistenceError) Details() map[string]any { return nil }

type CheckoutInProgressError struct {
	// Reconciling is set when the earlier attempt is awaiting payment
	// reconciliation rather than still running.
	Reconciling bool
}

func (e *CheckoutInProgressError) Error() string {
	if e.Reconciling {
		return "checkout with this idempotency key is awaiting payment reconciliation"
	}
	return "checkout with this idempotency key is already in progress"
}
func (e *CheckoutInProgressError) Code() string { return "checkout_in_progress" }
func (e *CheckoutInProgressError) Details() map[string]any {
	if e.Reconciling {
		return map[string]any{"reconciling": true}
	}
	return nil
}

// CheckoutBusyError means other checkouts held the cart or tyre rows for
// too long. Nothing was charged and the request can be retried.
type CheckoutBusyError struct{}

func (e *CheckoutBusyError) Error() string {
	return "too many checkouts for these products right now, please retry"
}
func (e *CheckoutBusyError) Code() string            { return "checkout_busy" }
func (e *CheckoutBusyError) Details() map[string]any { return nil }

type IdempotencyConflictError struct{}

func (e *IdempotencyConflictError) Error() string {
	return "idempotency key was already used with a different request"
}
func (e *IdempotencyConflictError) Code() string            { return "idempotency_conflict" }
func (e *IdempotencyConflictError) Details() map[string]any { return nil }

// InvalidRequestError covers malformed input that is not an address,
// payment method or coupon problem.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string           { return e.Message }
func (e *InvalidRequestError) Code() string            { return "invalid_request" }
func (e *InvalidRequestError) Details() map[string]any { return nil }
