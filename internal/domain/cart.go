package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const MaxCartQuantity = 99

type CartItem struct {
	TyreID   int64     `json:"tyreId"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

// CartLine is a cart item joined with the current catalog data.
type CartLine struct {
	TyreID    int64           `json:"tyreId"`
	Name      string          `json:"name"`
	BrandName string          `json:"brandName"`
	Size      string          `json:"size"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Stock     int             `json:"stock"`
}

type Cart struct {
	UserID    int64           `json:"userId"`
	Lines     []CartLine      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Recalculate refreshes line totals, item count and subtotal.
func (c *Cart) Recalculate() {
	c.ItemCount = 0
	c.Subtotal = decimal.Zero
	for i := range c.Lines {
		l := &c.Lines[i]
		l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		c.ItemCount += l.Quantity
		c.Subtotal = c.Subtotal.Add(l.LineTotal)
	}
}

type WishlistItem struct {
	TyreID    int64           `json:"tyreId"`
	Name      string          `json:"name"`
	BrandName string          `json:"brandName"`
	Price     decimal.Decimal `json:"price"`
	InStock   bool            `json:"inStock"`
	AddedAt   time.Time       `json:"addedAt"`
}
