package entity

import "github.com/shopspring/decimal"

// DiscountType identifies how a line discount is interpreted
type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountAmount     DiscountType = "amount"
)

// IsValid returns true if the discount type is one of the known variants
func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountNone, DiscountPercentage, DiscountAmount:
		return true
	}
	return false
}

// Discount is a tagged discount specification applied to a line subtotal.
// Value is a percentage in [0,100] for DiscountPercentage and a flat
// amount for DiscountAmount; it is ignored for DiscountNone.
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// NoDiscount returns the zero discount
func NoDiscount() Discount {
	return Discount{Type: DiscountNone}
}

// SizeAllocation is one size variant's share of a line's quantity
type SizeAllocation struct {
	ID       int64  `json:"id"`
	SizeID   int64  `json:"size_id"`
	SizeName string `json:"size_name"`
	Quantity int    `json:"quantity"`
}

// LineItem is one product reference on a bill.
// DiscountAmount and Total are derived by the pricer and must never be
// edited directly.
type LineItem struct {
	ID          int64            `json:"id"`
	ProductID   int64            `json:"product_id"`
	ProductName string           `json:"product_name"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	UnitCost    decimal.Decimal  `json:"unit_cost"`
	Quantity    int              `json:"quantity"`
	Sizes       []SizeAllocation `json:"sizes,omitempty"`
	Discount    Discount         `json:"discount"`

	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// IsComplete reports whether the line has a selected product reference.
// Incomplete lines are UI leftovers and are excluded from totals and
// from persistence.
func (l *LineItem) IsComplete() bool {
	return l.ProductID != 0
}

// AllocatedQuantity returns the sum of all size allocation quantities
func (l *LineItem) AllocatedQuantity() int {
	total := 0
	for _, s := range l.Sizes {
		total += s.Quantity
	}
	return total
}

// Subtotal returns quantity × unit price before any discount
func (l *LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
