package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CouponKind string

const (
	CouponPercent CouponKind = "PERCENT"
	CouponFlat    CouponKind = "FLAT"
)

type Coupon struct {
	Code        string
	Kind        CouponKind
	Value       decimal.Decimal
	MinSubtotal decimal.Decimal
	ExpiresAt   *time.Time
	Active      bool
}

// Usable reports whether the coupon may be applied at the given time.
func (c Coupon) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
}
