package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDealerNotFound     = errors.New("dealer not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCartItemNotFound   = errors.New("item not found in cart")
	ErrDuplicateReview    = errors.New("review for this tyre already exists")
	ErrDuplicateOrder     = errors.New("order number or idempotency key already used")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrIllegalTransition  = errors.New("illegal order status transition")
	ErrIllegalBookingMove = errors.New("booking cannot be changed in its current status")
	ErrCommitFailed       = errors.New("commit failed")
	ErrAlreadyExists      = errors.New("already exists")
	ErrLockTimeout        = errors.New("timed out waiting for a row lock")
	ErrRefundRequired     = errors.New("paid order cannot be cancelled without a refund")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
	pqLockNotAvailable    = "55P03"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}

func isCheckViolation(err error) bool {
	return pqCode(err) == pqCheckViolation
}

func isLockTimeout(err error) bool {
	return pqCode(err) == pqLockNotAvailable
}
