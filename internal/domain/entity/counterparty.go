package entity

import "time"

// Role identifies the kind of counterparty on a bill
type Role string

const (
	RoleWholesaler Role = "wholesaler"
	RoleReseller   Role = "reseller"
	RoleRetailer   Role = "retailer"
	RoleVendor     Role = "vendor"
)

// IsValid returns true if the role is one of the known counterparty roles
func (r Role) IsValid() bool {
	switch r {
	case RoleWholesaler, RoleReseller, RoleRetailer, RoleVendor:
		return true
	}
	return false
}

// IsBuyer reports whether the role buys from us (order bills).
// Vendors sell to us (purchase bills).
func (r Role) IsBuyer() bool {
	return r == RoleWholesaler || r == RoleReseller || r == RoleRetailer
}

// Counterparty is the other party on a bill: a vendor for purchases, a
// wholesaler/reseller/retailer account for orders. One record shape for
// all four; the role tag carries the distinction.
type Counterparty struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
