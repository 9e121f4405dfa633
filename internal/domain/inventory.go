package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AdjustmentType string

const (
	AdjustmentAdd    AdjustmentType = "ADD"
	AdjustmentRemove AdjustmentType = "REMOVE"
	AdjustmentSet    AdjustmentType = "SET"
)

func (t AdjustmentType) Valid() bool {
	return t == AdjustmentAdd || t == AdjustmentRemove || t == AdjustmentSet
}

type StockStatus string

const (
	StockOut    StockStatus = "OUT"
	StockLow    StockStatus = "LOW"
	StockNormal StockStatus = "NORMAL"
	StockHigh   StockStatus = "HIGH"
)

// StockAdjustment is the audit row written for every manual adjustment.
type StockAdjustment struct {
	ID             int64          `json:"id"`
	TyreID         int64          `json:"tyreId"`
	AdjustmentType AdjustmentType `json:"adjustmentType"`
	Quantity       int            `json:"quantity"`
	PreviousStock  int            `json:"previousStock"`
	NewStock       int            `json:"newStock"`
	Clamped        bool           `json:"clamped"`
	Reason         string         `json:"reason"`
	Notes          string         `json:"notes,omitempty"`
	CreatedBy      int64          `json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// StockLevel is one row of the inventory view.
type StockLevel struct {
	TyreID       int64           `json:"tyreId"`
	Name         string          `json:"name"`
	BrandName    string          `json:"brandName"`
	Size         string          `json:"size"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	ReorderPoint int             `json:"reorderPoint"`
	MaxStock     int             `json:"maxStock"`
	Status       StockStatus     `json:"status"`
}
