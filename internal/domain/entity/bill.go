package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillKind distinguishes sales from buys
type BillKind string

const (
	// BillKindOrder is a sale to a wholesaler/reseller/retailer.
	// Order bills settle at save time and carry no payments ledger.
	BillKindOrder BillKind = "order"

	// BillKindPurchase is a buy from a vendor. Purchase bills carry
	// shared overhead expenses and an append-only payments ledger.
	BillKindPurchase BillKind = "purchase"
)

// Expenses is the shared overhead on a purchase bill, distributed
// evenly across all purchased units to produce the landing cost.
type Expenses struct {
	Shipping  decimal.Decimal `json:"shipping"`
	Packaging decimal.Decimal `json:"packaging"`
	Misc      decimal.Decimal `json:"misc"`
}

// Total returns shipping + packaging + misc
func (e Expenses) Total() decimal.Decimal {
	return e.Shipping.Add(e.Packaging).Add(e.Misc)
}

// IsZero reports whether no expense has been recorded. The landing-cost
// view is only shown once at least one expense is non-zero.
func (e Expenses) IsZero() bool {
	return e.Shipping.IsZero() && e.Packaging.IsZero() && e.Misc.IsZero()
}

// Bill is the aggregate root for both order and purchase documents.
// Subtotal, TotalDiscount and GrandTotal are derived from Lines by the
// aggregator and recomputed on every mutation, never patched in place.
type Bill struct {
	ID               int64      `json:"id"`
	Kind             BillKind   `json:"kind"`
	CounterpartyID   int64      `json:"counterparty_id"`
	CounterpartyRole Role       `json:"counterparty_role"`
	BillDate         time.Time  `json:"bill_date"`
	Lines            []LineItem `json:"lines"`

	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`

	// Purchase-only fields; zero-valued on order bills
	Expenses Expenses  `json:"expenses"`
	Payments []Payment `json:"payments,omitempty"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalUnits returns the bill-wide unit count across all complete lines
func (b *Bill) TotalUnits() int {
	units := 0
	for i := range b.Lines {
		if b.Lines[i].IsComplete() {
			units += b.Lines[i].Quantity
		}
	}
	return units
}

// BillTotal is the amount the ledger settles against: item totals plus
// extra charges.
func (b *Bill) BillTotal() decimal.Decimal {
	return b.GrandTotal.Add(b.Expenses.Total())
}

// PaidAmount returns the sum of all recorded payments
func (b *Bill) PaidAmount() decimal.Decimal {
	paid := decimal.Zero
	for i := range b.Payments {
		paid = paid.Add(b.Payments[i].Amount)
	}
	return paid
}

// Balance returns the outstanding amount. It is never negative in a
// reachable state: overpayments are rejected before they are recorded,
// and an expense revision cannot drop the bill total below the paid
// amount.
func (b *Bill) Balance() decimal.Decimal {
	return b.BillTotal().Sub(b.PaidAmount())
}

// FindLine returns the line holding the given product reference, or nil
func (b *Bill) FindLine(productID int64) *LineItem {
	for i := range b.Lines {
		if b.Lines[i].ProductID == productID {
			return &b.Lines[i]
		}
	}
	return nil
}
