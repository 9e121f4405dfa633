package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ServiceType string

const (
	ServiceFitting        ServiceType = "FITTING"
	ServiceAlignment      ServiceType = "ALIGNMENT"
	ServiceBalancing      ServiceType = "BALANCING"
	ServiceRotation       ServiceType = "ROTATION"
	ServicePunctureRepair ServiceType = "PUNCTURE_REPAIR"
)

func (t ServiceType) Valid() bool {
	switch t {
	case ServiceFitting, ServiceAlignment, ServiceBalancing, ServiceRotation, ServicePunctureRepair:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingRequested BookingStatus = "REQUESTED"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) Cancellable() bool {
	return s == BookingRequested || s == BookingConfirmed
}

// VehicleDetails is stored as JSONB on the booking row.
type VehicleDetails struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Registration string `json:"registration,omitempty"`
}

func (v VehicleDetails) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *VehicleDetails) Scan(src any) error {
	switch b := src.(type) {
	case []byte:
		return json.Unmarshal(b, v)
	case string:
		return json.Unmarshal([]byte(b), v)
	default:
		return fmt.Errorf("vehicle details: unsupported column type %T", src)
	}
}

type ServiceBooking struct {
	ID          uuid.UUID      `json:"id"`
	UserID      int64          `json:"userId"`
	ServiceType ServiceType    `json:"serviceType"`
	Vehicle     VehicleDetails `json:"vehicle"`
	ScheduledAt time.Time      `json:"scheduledAt"`
	Status      BookingStatus  `json:"status"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
