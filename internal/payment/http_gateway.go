package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/pkg/circuitbreaker"
)

const providerName = "http-gateway"

type gatewayReply struct {
	TransactionID string `json:"transactionId"`
	RefundID      string `json:"refundId"`
	Status        string `json:"status"`
	AuthCode      string `json:"authCode"`
	Message       string `json:"message"`
	DeclineReason string `json:"declineReason"`
}

// HTTPGateway posts charges and refunds to a JSON payment API behind
// circuit breakers. Declines and caller cancellations do not count against
// a breaker.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	charges *circuitbreaker.Breaker[*ChargeResult]
	refunds *circuitbreaker.Breaker[*RefundResult]
}

func NewHTTPGateway(baseURL, apiKey string, client *http.Client, log *slog.Logger) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		charges: circuitbreaker.New[*ChargeResult](circuitbreaker.DefaultConfig("payment-gateway"), countsAsSuccess, log),
		refunds: circuitbreaker.New[*RefundResult](circuitbreaker.DefaultConfig("payment-gateway-refunds"), countsAsSuccess, log),
	}
}

func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrDeclined) || errors.Is(err, context.Canceled)
}

func (g *HTTPGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	res, err := g.charges.Execute(func() (*ChargeResult, error) {
		reply, gr, err := g.send(ctx, "/v1/charges", req.IdempotencyKey, req)
		if err != nil {
			return nil, err
		}
		if reply.TransactionID == "" {
			return nil, fmt.Errorf("%w: approved charge without transaction id", ErrTimeout)
		}
		return &ChargeResult{TransactionID: reply.TransactionID, Response: gr}, nil
	})
	if circuitbreaker.IsOpen(err) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res, err
}

func (g *HTTPGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	res, err := g.refunds.Execute(func() (*RefundResult, error) {
		reply, gr, err := g.send(ctx, "/v1/refunds", req.IdempotencyKey, req)
		if err != nil {
			return nil, err
		}
		if reply.RefundID == "" {
			return nil, fmt.Errorf("%w: accepted refund without refund id", ErrTimeout)
		}
		if gr.TransactionID == "" {
			gr.TransactionID = req.TransactionID
		}
		gr.RefundID = reply.RefundID
		return &RefundResult{RefundID: reply.RefundID, Response: gr}, nil
	})
	if circuitbreaker.IsOpen(err) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res, err
}

// send posts payload to path. Errors wrap ErrUnavailable only when the
// gateway cannot have acted on the request; anything that may have been
// acted on wraps ErrTimeout.
func (g *HTTPGateway) send(ctx context.Context, path, idempotencyKey string, payload any) (*gatewayReply, domain.GatewayResponse, error) {
	var gr domain.GatewayResponse

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, gr, fmt.Errorf("marshal %s request: %w", path, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, gr, fmt.Errorf("build %s request: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if neverSent(err) {
			return nil, gr, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, gr, fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, gr, fmt.Errorf("%w: read body: %w", ErrTimeout, err)
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusTooManyRequests:
		return nil, gr, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, gr, fmt.Errorf("%w: status %d", ErrTimeout, resp.StatusCode)
	}

	var reply gatewayReply
	decodeErr := json.Unmarshal(raw, &reply)

	gr = domain.GatewayResponse{
		Provider:      providerName,
		TransactionID: reply.TransactionID,
		Status:        reply.Status,
		AuthCode:      reply.AuthCode,
		Message:       reply.Message,
	}
	if json.Valid(raw) {
		gr.Raw = raw
	}

	if resp.StatusCode == http.StatusPaymentRequired || strings.EqualFold(reply.Status, "declined") {
		reason := reply.DeclineReason
		if reason == "" {
			reason = reply.Message
		}
		return nil, gr, &DeclineError{Reason: reason, Response: gr}
	}
	if resp.StatusCode >= 400 {
		return nil, gr, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, gr, fmt.Errorf("%w: decode response: %w", ErrTimeout, decodeErr)
	}
	return &reply, gr, nil
}

// neverSent reports whether the request failed before a connection to the
// gateway existed.
func neverSent(err error) bool {
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial"
}
