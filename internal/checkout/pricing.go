package checkout

import (
	"strings"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/shopspring/decimal"
)

type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	Currency              string
}

func DefaultPricing() PricingConfig {
	return PricingConfig{
		FreeShippingThreshold: decimal.NewFromInt(5000),
		ShippingFee:           decimal.NewFromInt(500),
		Currency:              "INR",
	}
}

type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Shipping is free at or above the threshold.
func (p PricingConfig) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.ShippingFee
}

// Price computes the order totals from the locked cart lines. The discount
// never exceeds subtotal plus shipping, so the total stays at or above zero
// and equals subtotal + shipping - discount.
func (p PricingConfig) Price(lines []domain.CartLine, coupon *domain.Coupon, now time.Time) (Quote, error) {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	shipping := p.Shipping(subtotal)

	discount := decimal.Zero
	if coupon != nil {
		d, err := couponDiscount(*coupon, subtotal, now)
		if err != nil {
			return Quote{}, err
		}
		discount = d
	}

	gross := subtotal.Add(shipping)
	if discount.GreaterThan(gross) {
		discount = gross
	}

	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    decimal.Max(decimal.Zero, gross.Sub(discount)),
	}, nil
}

func couponDiscount(c domain.Coupon, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	code := strings.ToUpper(c.Code)
	if !c.Active {
		return decimal.Zero, &InvalidCouponError{Coupon: code, Reason: "inactive"}
	}
	if !c.Usable(now) {
		return decimal.Zero, &InvalidCouponError{Coupon: code, Reason: "expired"}
	}
	if subtotal.LessThan(c.MinSubtotal) {
		return decimal.Zero, &InvalidCouponError{Coupon: code, Reason: "minimum subtotal not met"}
	}

	switch c.Kind {
	case domain.CouponPercent:
		return subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2), nil
	case domain.CouponFlat:
		return c.Value, nil
	default:
		return decimal.Zero, &InvalidCouponError{Coupon: code, Reason: "unknown coupon kind"}
	}
}
