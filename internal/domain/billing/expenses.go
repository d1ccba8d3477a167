package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/resellkart/billing/internal/domain/entity"
)

// Distribute spreads shared overhead evenly across all purchased units.
// The divisor is the bill-wide unit count over all lines, so every unit
// absorbs an identical share regardless of which line it belongs to.
// With no units the addend is zero.
func Distribute(extraCharges decimal.Decimal, totalUnits int) decimal.Decimal {
	if totalUnits <= 0 {
		return decimal.Zero
	}
	return extraCharges.Div(decimal.NewFromInt(int64(totalUnits)))
}

// ReviseExpenses replaces the shared overhead on a purchase bill. The
// ledger is append-only, so the revised bill total may not drop below
// what has already been collected; when the revision lands exactly on
// the paid amount the bill settles the same way a clearing payment
// would. The bill is untouched when the revision is rejected.
func ReviseExpenses(ctx context.Context, bill *entity.Bill, expenses entity.Expenses) error {
	newTotal := bill.GrandTotal.Add(expenses.Total())
	paid := bill.PaidAmount()
	if newTotal.LessThan(paid) {
		return NewValidationError("expenses", fmt.Sprintf("bill total of %s cannot drop below the %s already paid", newTotal, paid))
	}
	bill.Expenses = expenses
	if paid.IsPositive() {
		return settleIfCleared(ctx, bill)
	}
	return nil
}

// LandingCost is a line's per-unit cost including its share of shared
// overhead. It is a reporting artifact recomputed from the current
// expenses each time they change; the line's own unit cost stays the
// authoritative purchase cost and is never overwritten by this.
type LandingCost struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	PerUnitShare decimal.Decimal `json:"per_unit_share"`
	LandingCost  decimal.Decimal `json:"landing_cost"`
}

// LandingCosts derives the landing cost for every complete line on a
// purchase bill.
func LandingCosts(bill *entity.Bill) []LandingCost {
	perUnit := Distribute(bill.Expenses.Total(), bill.TotalUnits())

	costs := make([]LandingCost, 0, len(bill.Lines))
	for i := range bill.Lines {
		line := &bill.Lines[i]
		if !line.IsComplete() {
			continue
		}
		costs = append(costs, LandingCost{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			UnitCost:     line.UnitCost,
			PerUnitShare: perUnit,
			LandingCost:  line.UnitCost.Add(perUnit),
		})
	}
	return costs
}
