package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Address is a postal address snapshot. Orders embed a copy so later
// address-book edits never alter past orders.
type Address struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

// MissingField returns the JSON name of the first required field that is
// blank, or "" when the address is complete.
func (a Address) MissingField() string {
	required := []struct {
		name  string
		value string
	}{
		{"fullName", a.FullName},
		{"phone", a.Phone},
		{"addressLine1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return f.name
		}
	}
	return ""
}

// Normalized trims every field and defaults the country to India.
func (a Address) Normalized() Address {
	out := Address{
		FullName:     strings.TrimSpace(a.FullName),
		Phone:        strings.TrimSpace(a.Phone),
		AddressLine1: strings.TrimSpace(a.AddressLine1),
		AddressLine2: strings.TrimSpace(a.AddressLine2),
		City:         strings.TrimSpace(a.City),
		State:        strings.TrimSpace(a.State),
		PostalCode:   strings.TrimSpace(a.PostalCode),
		Country:      strings.TrimSpace(a.Country),
	}
	if out.Country == "" {
		out.Country = "IN"
	}
	return out
}

// Value stores the address as JSONB.
func (a Address) Value() (driver.Value, error) {
	if field := a.MissingField(); field != "" {
		return nil, fmt.Errorf("address: %s is required", field)
	}
	return json.Marshal(a)
}

// Scan reads a JSONB address column.
func (a *Address) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		return errors.New("address: null column")
	default:
		return fmt.Errorf("address: unsupported column type %T", src)
	}
	return json.Unmarshal(data, a)
}
