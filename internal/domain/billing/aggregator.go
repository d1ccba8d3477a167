package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/resellkart/billing/internal/domain/entity"
)

// Totals holds the bill-level sums over complete lines
type Totals struct {
	Subtotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	GrandTotal    decimal.Decimal
}

// Aggregate sums per-line fields into bill totals. Lines without a
// selected product reference are incomplete rows left by the user; they
// are excluded so they cannot corrupt the sums.
func Aggregate(lines []entity.LineItem) Totals {
	totals := Totals{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		GrandTotal:    decimal.Zero,
	}
	for i := range lines {
		if !lines[i].IsComplete() {
			continue
		}
		totals.Subtotal = totals.Subtotal.Add(lines[i].Subtotal())
		totals.TotalDiscount = totals.TotalDiscount.Add(lines[i].DiscountAmount)
		totals.GrandTotal = totals.GrandTotal.Add(lines[i].Total)
	}
	return totals
}

// Recalculate runs the full derivation pipeline over a bill: every line
// is repriced and the bill totals are re-aggregated. Called identically
// from the order and purchase flows after any line mutation so the two
// can never drift.
func Recalculate(bill *entity.Bill) {
	for i := range bill.Lines {
		Reprice(&bill.Lines[i])
	}
	totals := Aggregate(bill.Lines)
	bill.Subtotal = totals.Subtotal
	bill.TotalDiscount = totals.TotalDiscount
	bill.GrandTotal = totals.GrandTotal
}

// ValidateForSubmit checks a bill against the submission contract. An
// invalid bill is rejected in full; nothing is ever half-saved.
func ValidateForSubmit(bill *entity.Bill) error {
	complete := 0
	seen := make(map[int64]bool)
	for i := range bill.Lines {
		line := &bill.Lines[i]
		if !line.IsComplete() {
			continue
		}
		complete++

		if seen[line.ProductID] {
			return &InvariantViolation{
				Detail: fmt.Sprintf("product %d appears on more than one line", line.ProductID),
			}
		}
		seen[line.ProductID] = true

		if line.Quantity <= 0 {
			return NewValidationError("quantity", fmt.Sprintf("line for product %q needs a positive quantity", line.ProductName))
		}
		if line.UnitPrice.IsNegative() {
			return NewValidationError("unit_price", fmt.Sprintf("line for product %q has a negative unit price", line.ProductName))
		}
		if bill.Kind == entity.BillKindPurchase && !line.UnitCost.IsPositive() {
			return NewValidationError("unit_cost", fmt.Sprintf("line for product %q needs a positive cost", line.ProductName))
		}
		if err := CheckSizeConservation(line); err != nil {
			return err
		}
	}

	if complete == 0 {
		return NewValidationError("lines", "bill needs at least one line with a selected product")
	}
	if bill.CounterpartyID == 0 {
		return NewValidationError("counterparty", "bill needs a counterparty")
	}
	if !bill.CounterpartyRole.IsValid() {
		return NewValidationError("counterparty_role", "unknown counterparty role")
	}
	if bill.Kind == entity.BillKindOrder && !bill.CounterpartyRole.IsBuyer() {
		return NewValidationError("counterparty_role", "order bills require a wholesaler, reseller or retailer")
	}
	if bill.Kind == entity.BillKindPurchase && bill.CounterpartyRole != entity.RoleVendor {
		return NewValidationError("counterparty_role", "purchase bills require a vendor")
	}
	return nil
}

// StripIncompleteLines drops lines without a product reference before
// persistence. Incomplete rows are a UI artifact and are never saved.
func StripIncompleteLines(bill *entity.Bill) {
	kept := bill.Lines[:0]
	for i := range bill.Lines {
		if bill.Lines[i].IsComplete() {
			kept = append(kept, bill.Lines[i])
		}
	}
	bill.Lines = kept
}
