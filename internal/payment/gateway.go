package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrDeclined = errors.New("payment declined")
	// ErrTimeout means the request may have reached the gateway and the
	// outcome is unknown. The money may have moved.
	ErrTimeout = errors.New("payment gateway timed out")
	// ErrUnavailable means the gateway did not act on the request.
	ErrUnavailable = errors.New("payment gateway unavailable")
)

// DeclineError carries the gateway's reason. It matches ErrDeclined.
type DeclineError struct {
	Reason   string
	Response domain.GatewayResponse
}

func (e *DeclineError) Error() string {
	return fmt.Sprintf("payment declined: %s", e.Reason)
}

func (e *DeclineError) Is(target error) bool {
	return target == ErrDeclined
}

type ChargeRequest struct {
	Reference      string          `json:"reference"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Method         string          `json:"method"`
	CustomerEmail  string          `json:"customerEmail,omitempty"`
}

type ChargeResult struct {
	TransactionID string
	Response      domain.GatewayResponse
}

// RefundRequest returns a captured charge in full. Repeating a request with
// the same IdempotencyKey refunds at most once.
type RefundRequest struct {
	TransactionID  string          `json:"transactionId"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Reference      string          `json:"reference"`
}

type RefundResult struct {
	RefundID string
	Response domain.GatewayResponse
}

// Gateway charges and refunds customers. Implementations return
// ErrDeclined (as a *DeclineError), ErrTimeout or ErrUnavailable for the
// known failure kinds.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}
