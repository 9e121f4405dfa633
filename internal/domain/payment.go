package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayResponse is the gateway's answer kept for disputes and
// reconciliation. Raw holds the untouched body.
type GatewayResponse struct {
	Provider      string          `json:"provider,omitempty"`
	TransactionID string          `json:"transactionId,omitempty"`
	Status        string          `json:"status,omitempty"`
	AuthCode      string          `json:"authCode,omitempty"`
	Message       string          `json:"message,omitempty"`
	RefundID      string          `json:"refundId,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

func (g GatewayResponse) Value() (driver.Value, error) {
	return json.Marshal(g)
}

func (g *GatewayResponse) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*g = GatewayResponse{}
		return nil
	case []byte:
		return json.Unmarshal(v, g)
	case string:
		return json.Unmarshal([]byte(v), g)
	default:
		return fmt.Errorf("gateway response: unsupported column type %T", src)
	}
}

type Payment struct {
	ID              uuid.UUID       `json:"id"`
	OrderID         uuid.UUID       `json:"orderId"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	TransactionID   string          `json:"transactionId,omitempty"`
	Status          PaymentStatus   `json:"status"`
	PaymentDate     time.Time       `json:"paymentDate"`
	GatewayResponse GatewayResponse `json:"gatewayResponse"`
}
