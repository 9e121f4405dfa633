package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsActive reports whether the order is still moving through fulfillment.
func (s OrderStatus) IsActive() bool {
	return !s.IsTerminal()
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentWallet     PaymentMethod = "WALLET"
	PaymentCOD        PaymentMethod = "COD"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentUPI, PaymentWallet, PaymentCOD:
		return true
	}
	return false
}

// RequiresGateway is false only for cash on delivery.
func (m PaymentMethod) RequiresGateway() bool {
	return m != PaymentCOD
}

type OrderItem struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"orderId"`
	TyreID     int64           `json:"tyreId"`
	TyreName   string          `json:"tyreName"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          int64           `json:"userId"`
	OrderNumber     string          `json:"orderNumber"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	ShippingAmount  decimal.Decimal `json:"shippingAmount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Currency        string          `json:"currency"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	ShippingAddress Address         `json:"shippingAddress"`
	BillingAddress  Address         `json:"billingAddress"`
	CouponCode      string          `json:"couponCode,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	IdempotencyKey  string          `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	Items   []OrderItem `json:"items"`
	Payment *Payment    `json:"payment,omitempty"`
}

// ItemsTotal is the sum of the line totals.
func (o *Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.TotalPrice)
	}
	return sum
}

// Balanced reports whether total = items + shipping - discount.
func (o *Order) Balanced() bool {
	want := o.ItemsTotal().Add(o.ShippingAmount).Sub(o.DiscountAmount)
	if want.IsNegative() {
		want = decimal.Zero
	}
	return o.TotalAmount.Equal(want) && !o.TotalAmount.IsNegative()
}
