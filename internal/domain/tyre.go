package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Season string

const (
	SeasonSummer    Season = "SUMMER"
	SeasonWinter    Season = "WINTER"
	SeasonAllSeason Season = "ALL_SEASON"
)

type VehicleType string

const (
	VehicleCar   VehicleType = "CAR"
	VehicleSUV   VehicleType = "SUV"
	VehicleBike  VehicleType = "BIKE"
	VehicleTruck VehicleType = "TRUCK"
)

type Brand struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// Tyre is a catalog product.
type Tyre struct {
	ID           int64           `json:"id"`
	BrandID      int64           `json:"brandId"`
	BrandName    string          `json:"brandName"`
	Name         string          `json:"name"`
	Size         string          `json:"size"`
	Width        int             `json:"width"`
	AspectRatio  int             `json:"aspectRatio"`
	RimDiameter  int             `json:"rimDiameter"`
	Season       Season          `json:"season"`
	VehicleType  VehicleType     `json:"vehicleType"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	ReorderPoint int             `json:"reorderPoint"`
	MaxStock     int             `json:"maxStock"`
	Description  string          `json:"description,omitempty"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	Rating       float64         `json:"rating"`
	ReviewCount  int             `json:"reviewCount"`
	CreatedAt    time.Time       `json:"createdAt"`

	Vehicles []CompatibleVehicle `json:"compatibleVehicles,omitempty"`
}

func (t Tyre) InStock() bool {
	return t.Stock > 0
}

type CompatibleVehicle struct {
	ID       int64  `json:"id"`
	TyreID   int64  `json:"tyreId"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	YearFrom int    `json:"yearFrom"`
	YearTo   int    `json:"yearTo"`
}

type Review struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	TyreID    int64     `json:"tyreId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}
