package billing

import (
	"github.com/shopspring/decimal"

	"github.com/resellkart/billing/internal/domain/entity"
)

var oneHundred = decimal.NewFromInt(100)

// Price computes a line's discount amount and total from raw inputs.
// subtotal = quantity × unitPrice; the discount is applied to the
// subtotal and the final total is floored at zero. A discount larger
// than the subtotal is not an error: the total silently floors to 0.
//
// Negative inputs are the caller's responsibility; the pricer is a pure
// function with no validation and no side effects.
func Price(quantity int, unitPrice decimal.Decimal, discount entity.Discount) (discountAmount, total decimal.Decimal) {
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	switch discount.Type {
	case entity.DiscountPercentage:
		discountAmount = subtotal.Mul(discount.Value).Div(oneHundred)
	case entity.DiscountAmount:
		discountAmount = discount.Value
	default:
		discountAmount = decimal.Zero
	}

	total = subtotal.Sub(discountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return discountAmount, total
}

// Reprice recomputes a line's derived fields from its current quantity,
// unit price, and discount. It is re-run in full on every field change
// rather than patched incrementally, so totals can never go stale.
func Reprice(line *entity.LineItem) {
	line.DiscountAmount, line.Total = Price(line.Quantity, line.UnitPrice, line.Discount)
}
