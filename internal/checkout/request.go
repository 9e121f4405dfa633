package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/fjod/athometyre/internal/domain"
)

const maxIdempotencyKeyLen = 128

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Request struct {
	IdempotencyKey  string
	ShippingAddress domain.Address
	// BillingAddress defaults to the shipping address when nil.
	BillingAddress *domain.Address
	PaymentMethod  domain.PaymentMethod
	CouponCode     string
	Notes          string
	Customer       Customer
}

// normalize trims the request and validates everything that can be checked
// without the database.
func (r Request) normalize() (Request, error) {
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
	if r.IdempotencyKey == "" {
		return r, &InvalidRequestError{Message: "idempotency key is required"}
	}
	if len(r.IdempotencyKey) > maxIdempotencyKeyLen {
		return r, &InvalidRequestError{Message: "idempotency key is too long"}
	}

	r.ShippingAddress = r.ShippingAddress.Normalized()
	if field := r.ShippingAddress.MissingField(); field != "" {
		return r, &InvalidAddressError{Field: "shippingAddress." + field}
	}
	if r.BillingAddress != nil {
		billing := r.BillingAddress.Normalized()
		if field := billing.MissingField(); field != "" {
			return r, &InvalidAddressError{Field: "billingAddress." + field}
		}
		r.BillingAddress = &billing
	} else {
		billing := r.ShippingAddress
		r.BillingAddress = &billing
	}

	r.PaymentMethod = domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(r.PaymentMethod))))
	if !r.PaymentMethod.Valid() {
		return r, &InvalidPaymentMethodError{Method: string(r.PaymentMethod)}
	}

	r.CouponCode = strings.ToUpper(strings.TrimSpace(r.CouponCode))
	r.Notes = strings.TrimSpace(r.Notes)
	return r, nil
}

// hash fingerprints the parts of a normalized request that define the
// order, so a reused key with a different body can be told apart.
func (r Request) hash() string {
	payload, _ := json.Marshal(struct {
		Shipping domain.Address       `json:"shipping"`
		Billing  *domain.Address      `json:"billing"`
		Method   domain.PaymentMethod `json:"method"`
		Coupon   string               `json:"coupon"`
		Notes    string               `json:"notes"`
	}{r.ShippingAddress, r.BillingAddress, r.PaymentMethod, r.CouponCode, r.Notes})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
