package payment

import (
	"context"
	"sync"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/google/uuid"
)

// FakeGateway approves every charge and refund unless a scripted outcome is
// queued. It is used when no gateway URL is configured and in tests.
// Charges and refunds repeated under an idempotency key it has already
// approved return the first result.
type FakeGateway struct {
	mu           sync.Mutex
	script       []error
	refundScript []error
	Charges      []ChargeRequest
	Refunds      []RefundRequest
	charged      map[string]*ChargeResult
	refunded     map[string]*RefundResult
}

func NewFakeGateway(outcomes ...error) *FakeGateway {
	return &FakeGateway{
		script:   outcomes,
		charged:  map[string]*ChargeResult{},
		refunded: map[string]*RefundResult{},
	}
}

// Enqueue schedules the outcome of the next charge. A nil entry approves.
func (f *FakeGateway) Enqueue(outcomes ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, outcomes...)
}

// EnqueueRefund schedules the outcome of the next refund.
func (f *FakeGateway) EnqueueRefund(outcomes ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refundScript = append(f.refundScript, outcomes...)
}

func (f *FakeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Charges = append(f.Charges, req)
	if res, ok := f.charged[req.IdempotencyKey]; ok {
		return res, nil
	}
	var outcome error
	if len(f.script) > 0 {
		outcome = f.script[0]
		f.script = f.script[1:]
	}

	if err := ctx.Err(); err != nil {
		return nil, ErrTimeout
	}
	if outcome != nil {
		return nil, outcome
	}

	txn := "FAKE-" + uuid.NewString()
	res := &ChargeResult{
		TransactionID: txn,
		Response: domain.GatewayResponse{
			Provider:      "fake",
			TransactionID: txn,
			Status:        "approved",
		},
	}
	if req.IdempotencyKey != "" {
		f.charged[req.IdempotencyKey] = res
	}
	return res, nil
}

func (f *FakeGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Refunds = append(f.Refunds, req)
	if res, ok := f.refunded[req.IdempotencyKey]; ok {
		return res, nil
	}
	var outcome error
	if len(f.refundScript) > 0 {
		outcome = f.refundScript[0]
		f.refundScript = f.refundScript[1:]
	}

	if err := ctx.Err(); err != nil {
		return nil, ErrTimeout
	}
	if outcome != nil {
		return nil, outcome
	}

	id := "FAKE-RF-" + uuid.NewString()
	res := &RefundResult{
		RefundID: id,
		Response: domain.GatewayResponse{
			Provider:      "fake",
			TransactionID: req.TransactionID,
			RefundID:      id,
			Status:        "refunded",
		},
	}
	if req.IdempotencyKey != "" {
		f.refunded[req.IdempotencyKey] = res
	}
	return res, nil
}

// ChargeCount counts charge requests, including repeats under a known key.
func (f *FakeGateway) ChargeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Charges)
}

// CapturedCount counts distinct approved charges.
func (f *FakeGateway) CapturedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.charged)
}

func (f *FakeGateway) RefundCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Refunds)
}
