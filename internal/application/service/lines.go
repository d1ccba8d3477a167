package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/resellkart/billing/internal/application/port"
	"github.com/resellkart/billing/internal/domain/billing"
	"github.com/resellkart/billing/internal/domain/entity"
)

// LineInput is one requested line on a bill submission
type LineInput struct {
	ProductID int64 `json:"product_id"`

	// Quantity applies to unsized and single-size products. For
	// multi-size products the quantity is derived from SizeQuantities
	// and this field is ignored.
	Quantity int `json:"quantity"`

	// SizeQuantities maps size id to quantity for multi-size products
	SizeQuantities map[int64]int `json:"size_quantities,omitempty"`

	DiscountType  string          `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal `json:"discount_value,omitempty"`
}

// assembleLines resolves each requested line against the catalog and
// runs the shared derivation pipeline: seed allocations, apply
// quantities, apply the discount, reprice, then aggregate the bill
// totals. Both the order and purchase flows go through this single
// path so their arithmetic can never drift apart.
func assembleLines(ctx context.Context, catalog port.Catalog, bill *entity.Bill, inputs []LineInput) error {
	if len(inputs) == 0 {
		return billing.NewValidationError("lines", "bill needs at least one line")
	}

	for _, in := range inputs {
		if in.ProductID == 0 {
			return billing.NewValidationError("product", "line is missing a product reference")
		}

		product, err := catalog.GetProduct(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("resolve product %d: %w", in.ProductID, err)
		}

		line, err := billing.AddLine(bill, product, bill.CounterpartyRole)
		if err != nil {
			return err
		}

		if err := applyQuantities(line, in); err != nil {
			return err
		}
		if err := applyDiscount(line, in); err != nil {
			return err
		}
	}

	billing.Recalculate(bill)
	return nil
}

func applyQuantities(line *entity.LineItem, in LineInput) error {
	if len(line.Sizes) > 1 {
		for i := range line.Sizes {
			quantity, ok := in.SizeQuantities[line.Sizes[i].SizeID]
			if !ok {
				continue
			}
			if err := billing.SetAllocationQuantity(line, i, quantity); err != nil {
				return err
			}
		}
		return nil
	}

	if in.Quantity > 0 {
		return billing.SetLineQuantity(line, in.Quantity)
	}
	return nil
}

func applyDiscount(line *entity.LineItem, in LineInput) error {
	if in.DiscountType == "" || in.DiscountType == string(entity.DiscountNone) {
		return nil
	}

	discountType := entity.DiscountType(in.DiscountType)
	if !discountType.IsValid() {
		return billing.NewValidationError("discount_type", fmt.Sprintf("unknown discount type %q", in.DiscountType))
	}
	if in.DiscountValue.IsNegative() {
		return billing.NewValidationError("discount_value", "discount value cannot be negative")
	}
	if discountType == entity.DiscountPercentage && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return billing.NewValidationError("discount_value", "percentage discount cannot exceed 100")
	}

	line.Discount = entity.Discount{Type: discountType, Value: in.DiscountValue}
	billing.Reprice(line)
	return nil
}
