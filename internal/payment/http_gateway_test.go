package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() ChargeRequest {
	return ChargeRequest{
		Reference:      "ATT-20260101-ABCDEF",
		IdempotencyKey: "key-1",
		Amount:         decimal.RequireFromString("5499.00"),
		Currency:       "INR",
		Method:         "UPI",
	}
}

func TestHTTPGateway_Approved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/charges", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req ChargeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Amount.Equal(decimal.RequireFromString("5499")))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactionId":"txn_1","status":"approved","authCode":"A1"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "secret", srv.Client(), nil)
	res, err := g.Charge(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "txn_1", res.TransactionID)
	assert.Equal(t, "A1", res.Response.AuthCode)
	assert.NotEmpty(t, res.Response.Raw)
}

func TestHTTPGateway_Declined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"status":"declined","declineReason":"insufficient funds"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "", srv.Client(), nil)
	_, err := g.Charge(context.Background(), testRequest())
	require.ErrorIs(t, err, ErrDeclined)

	var decline *DeclineError
	require.True(t, errors.As(err, &decline))
	assert.Equal(t, "insufficient funds", decline.Reason)
}

func TestHTTPGateway_ServiceUnavailableIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "", srv.Client(), nil)
	_, err := g.Charge(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestHTTPGateway_ConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := NewHTTPGateway(url, "", nil, nil)
	_, err := g.Charge(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
}

// Once the request is on the wire the gateway may have captured the money,
// so every failure other than a decline leaves the outcome unknown.
func TestHTTPGateway_AmbiguousAnswersAreTimeouts(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"internal error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"gateway timeout", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusGatewayTimeout)
		}},
		{"undecodable body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>ok</html>`))
		}},
		{"approved without transaction id", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"approved"}`))
		}},
		{"truncated body", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Length", "100")
			_, _ = w.Write([]byte(`{"transactionId":"txn_1"`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := NewHTTPGateway(srv.URL, "", srv.Client(), nil)
			_, err := g.Charge(context.Background(), testRequest())
			assert.ErrorIs(t, err, ErrTimeout)
			assert.NotErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestHTTPGateway_CancelledMidChargeIsAmbiguous(t *testing.T) {
	arrived := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-r.Context().Done()
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "", srv.Client(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-arrived
		cancel()
	}()

	_, err := g.Charge(ctx, testRequest())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestHTTPGateway_CancellationsDoNotTripBreaker(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"transactionId":"txn_1","status":"approved"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "", srv.Client(), nil)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 8; i++ {
		_, err := g.Charge(cancelled, testRequest())
		require.ErrorIs(t, err, context.Canceled)
	}

	res, err := g.Charge(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "txn_1", res.TransactionID)
	assert.Equal(t, "closed", g.charges.State())
	assert.Equal(t, 1, calls)
}

func TestHTTPGateway_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "", srv.Client(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := g.Charge(ctx, testRequest())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHTTPGateway_BreakerOpensOnOutage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "", srv.Client(), nil)
	for i := 0; i < 5; i++ {
		_, err := g.Charge(context.Background(), testRequest())
		require.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := g.Charge(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 5, calls)
}

func TestHTTPGateway_DeclinesDoNotTripBreaker(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"status":"declined","message":"card expired"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "", srv.Client(), nil)
	for i := 0; i < 8; i++ {
		_, err := g.Charge(context.Background(), testRequest())
		require.ErrorIs(t, err, ErrDeclined)
	}
	assert.Equal(t, 8, calls)
}

func TestHTTPGateway_Refund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		assert.Equal(t, "refund-1", r.Header.Get("Idempotency-Key"))

		var req RefundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "txn_1", req.TransactionID)

		_, _ = w.Write([]byte(`{"refundId":"rf_9","status":"refunded"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "", srv.Client(), nil)
	res, err := g.Refund(context.Background(), RefundRequest{
		TransactionID:  "txn_1",
		IdempotencyKey: "refund-1",
		Amount:         decimal.RequireFromString("5499"),
		Currency:       "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "rf_9", res.RefundID)
	assert.Equal(t, "rf_9", res.Response.RefundID)
	assert.Equal(t, "txn_1", res.Response.TransactionID)
}

func TestHTTPGateway_RefundRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"status":"declined","message":"charge already refunded"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "", srv.Client(), nil)
	_, err := g.Refund(context.Background(), RefundRequest{TransactionID: "txn_1", IdempotencyKey: "refund-1"})
	var decline *DeclineError
	require.True(t, errors.As(err, &decline))
	assert.Equal(t, "charge already refunded", decline.Reason)
}

func TestFakeGateway_Script(t *testing.T) {
	g := NewFakeGateway(&DeclineError{Reason: "stolen card"})

	_, err := g.Charge(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrDeclined)

	res, err := g.Charge(context.Background(), testRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, res.TransactionID)
	assert.Equal(t, 2, g.ChargeCount())
}

func TestFakeGateway_RepeatedKeyChargesOnce(t *testing.T) {
	g := NewFakeGateway(ErrUnavailable)

	_, err := g.Charge(context.Background(), testRequest())
	require.ErrorIs(t, err, ErrUnavailable)

	first, err := g.Charge(context.Background(), testRequest())
	require.NoError(t, err)
	again, err := g.Charge(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, first.TransactionID, again.TransactionID)
	assert.Equal(t, 3, g.ChargeCount())
	assert.Equal(t, 1, g.CapturedCount())
}

func TestFakeGateway_Refund(t *testing.T) {
	g := NewFakeGateway()
	g.EnqueueRefund(ErrTimeout)
	req := RefundRequest{TransactionID: "txn_1", IdempotencyKey: "refund-1"}

	_, err := g.Refund(context.Background(), req)
	require.ErrorIs(t, err, ErrTimeout)

	first, err := g.Refund(context.Background(), req)
	require.NoError(t, err)
	again, err := g.Refund(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.RefundID, again.RefundID)
	assert.Equal(t, "txn_1", first.Response.TransactionID)
	assert.Equal(t, 3, g.RefundCount())
}
