package domain

import "time"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleDealer   Role = "DEALER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDealer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the authenticated caller, supplied by the session layer and
// passed explicitly into every operation that needs it.
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
