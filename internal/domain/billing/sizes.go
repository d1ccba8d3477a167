package billing

import (
	"fmt"

	"github.com/resellkart/billing/internal/domain/entity"
)

// SeedAllocations builds the initial size allocations for a product,
// one per offered size (the product's own sizes, or the category's
// configured sizes when the product declares none). All allocations
// start at quantity 0, except when exactly one size exists, in which
// case it defaults to 1 so single-size lines behave like unsized ones.
// The returned quantity is the line's starting total: 1 for zero or one
// size, 0 otherwise.
func SeedAllocations(product *entity.CatalogProduct) ([]entity.SizeAllocation, int) {
	sizes := product.OfferedSizes()
	if len(sizes) == 0 {
		// Unsized product: plain quantity field, default 1
		return nil, 1
	}

	allocations := make([]entity.SizeAllocation, len(sizes))
	for i, s := range sizes {
		allocations[i] = entity.SizeAllocation{SizeID: s.ID, SizeName: s.Name}
	}

	if len(allocations) == 1 {
		allocations[0].Quantity = 1
		return allocations, 1
	}
	return allocations, 0
}

// SetAllocationQuantity updates one size allocation's quantity and
// re-derives the line's total quantity as the sum over all allocations,
// then reprices the line. For single-size lines the allocation and the
// line quantity are kept identical.
func SetAllocationQuantity(line *entity.LineItem, index, quantity int) error {
	if index < 0 || index >= len(line.Sizes) {
		return NewValidationError("size", fmt.Sprintf("no size allocation at index %d", index))
	}
	if quantity < 0 {
		return NewValidationError("quantity", "quantity cannot be negative")
	}

	line.Sizes[index].Quantity = quantity
	line.Quantity = line.AllocatedQuantity()
	Reprice(line)
	return nil
}

// SetLineQuantity sets the quantity of a line directly. It only applies
// to unsized and single-size lines; a multi-size line's quantity is
// derived from its allocations and must be edited through them.
func SetLineQuantity(line *entity.LineItem, quantity int) error {
	if quantity < 0 {
		return NewValidationError("quantity", "quantity cannot be negative")
	}
	if len(line.Sizes) > 1 {
		return NewValidationError("quantity", "quantity of a multi-size line is derived from its size breakdown")
	}

	line.Quantity = quantity
	if len(line.Sizes) == 1 {
		line.Sizes[0].Quantity = quantity
	}
	Reprice(line)
	return nil
}

// CheckSizeConservation verifies the size-sum invariant for a line:
// with zero or multiple sizes the line quantity must equal the sum of
// allocation quantities; with exactly one size the two quantities must
// match. A failure here is a defect in the engine, not a user error.
func CheckSizeConservation(line *entity.LineItem) error {
	if len(line.Sizes) == 0 {
		return nil
	}
	if allocated := line.AllocatedQuantity(); allocated != line.Quantity {
		return &InvariantViolation{
			Detail: fmt.Sprintf("line for product %d has quantity %d but size allocations sum to %d",
				line.ProductID, line.Quantity, allocated),
		}
	}
	return nil
}

// AddLine creates a new line for the product and appends it to the
// bill. Each product reference may appear in at most one line per bill;
// selecting the same reference twice is rejected, not silently merged.
// The unit price is resolved from the counterparty role's price tier.
func AddLine(bill *entity.Bill, product *entity.CatalogProduct, role entity.Role) (*entity.LineItem, error) {
	if existing := bill.FindLine(product.ID); existing != nil {
		return nil, NewValidationError("product", fmt.Sprintf("product %q is already on this bill", product.Name))
	}

	allocations, quantity := SeedAllocations(product)
	line := entity.LineItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.UnitPriceFor(role),
		UnitCost:    product.PurchaseCost,
		Quantity:    quantity,
		Sizes:       allocations,
		Discount:    entity.NoDiscount(),
	}
	Reprice(&line)

	bill.Lines = append(bill.Lines, line)
	return &bill.Lines[len(bill.Lines)-1], nil
}

// RemoveLine deletes the line holding the given product reference
func RemoveLine(bill *entity.Bill, productID int64) error {
	for i := range bill.Lines {
		if bill.Lines[i].ProductID == productID {
			bill.Lines = append(bill.Lines[:i], bill.Lines[i+1:]...)
			return nil
		}
	}
	return NewValidationError("product", fmt.Sprintf("no line for product %d on this bill", productID))
}
