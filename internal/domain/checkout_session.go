package domain

import (
	"time"

	"github.com/google/uuid"
)

type CheckoutStatus string

const (
	CheckoutStatusInProgress CheckoutStatus = "IN_PROGRESS"
	CheckoutStatusCompleted  CheckoutStatus = "COMPLETED"
	// CheckoutStatusReconcile marks a checkout whose payment outcome is
	// unknown or whose order could not be stored after a charge.
	CheckoutStatusReconcile CheckoutStatus = "RECONCILE"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusReconcile
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

// CheckoutSession is the idempotency record of one checkout submission.
type CheckoutSession struct {
	ID             uuid.UUID
	UserID         int64
	IdempotencyKey string
	RequestHash    string
	Status         CheckoutStatus
	OrderID        *uuid.UUID
	TransactionID  string
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
