package billing

import (
	"errors"
	"testing"

	"github.com/resellkart/billing/internal/domain/entity"
)

func multiSizeProduct() *entity.CatalogProduct {
	return &entity.CatalogProduct{
		ID:             10,
		Name:           "Printed Kurti",
		WholesalePrice: dec("180"),
		ResellerPrice:  dec("210"),
		RetailPrice:    dec("250"),
		PurchaseCost:   dec("140"),
		Sizes: []entity.Size{
			{ID: 1, Name: "S"},
			{ID: 2, Name: "M"},
			{ID: 3, Name: "L"},
		},
	}
}

func TestSeedAllocations(t *testing.T) {
	t.Run("multiple sizes start at zero", func(t *testing.T) {
		allocations, quantity := SeedAllocations(multiSizeProduct())

		if len(allocations) != 3 {
			t.Fatalf("got %d allocations, want 3", len(allocations))
		}
		if quantity != 0 {
			t.Errorf("starting quantity = %d, want 0", quantity)
		}
		for _, a := range allocations {
			if a.Quantity != 0 {
				t.Errorf("allocation %s starts at %d, want 0", a.SizeName, a.Quantity)
			}
		}
	})

	t.Run("single size defaults to one", func(t *testing.T) {
		product := multiSizeProduct()
		product.Sizes = product.Sizes[:1]

		allocations, quantity := SeedAllocations(product)

		if len(allocations) != 1 {
			t.Fatalf("got %d allocations, want 1", len(allocations))
		}
		if allocations[0].Quantity != 1 || quantity != 1 {
			t.Errorf("single-size seed = (%d, %d), want (1, 1)", allocations[0].Quantity, quantity)
		}
	})

	t.Run("no sizes behaves as unsized quantity field", func(t *testing.T) {
		product := multiSizeProduct()
		product.Sizes = nil

		allocations, quantity := SeedAllocations(product)

		if allocations != nil {
			t.Errorf("unsized product got %d allocations, want none", len(allocations))
		}
		if quantity != 1 {
			t.Errorf("default quantity = %d, want 1", quantity)
		}
	})

	t.Run("category sizes used as fallback", func(t *testing.T) {
		product := multiSizeProduct()
		product.Sizes = nil
		product.CategorySizes = []entity.Size{{ID: 7, Name: "Free Size"}, {ID: 8, Name: "XL"}}

		allocations, _ := SeedAllocations(product)

		if len(allocations) != 2 {
			t.Fatalf("got %d allocations, want 2 from category fallback", len(allocations))
		}
		if allocations[0].SizeName != "Free Size" {
			t.Errorf("allocation from category = %q, want %q", allocations[0].SizeName, "Free Size")
		}
	})
}

func TestSetAllocationQuantity(t *testing.T) {
	bill := &entity.Bill{Kind: entity.BillKindOrder}
	line, err := AddLine(bill, multiSizeProduct(), entity.RoleReseller)
	if err != nil {
		t.Fatalf("AddLine() failed: %v", err)
	}

	if err := SetAllocationQuantity(line, 0, 4); err != nil {
		t.Fatalf("SetAllocationQuantity() failed: %v", err)
	}
	if err := SetAllocationQuantity(line, 2, 6); err != nil {
		t.Fatalf("SetAllocationQuantity() failed: %v", err)
	}

	if line.Quantity != 10 {
		t.Errorf("line quantity = %d, want 10 (sum of allocations)", line.Quantity)
	}

	// Reprice must have run: 10 × 210 reseller price
	if !line.Total.Equal(dec("2100")) {
		t.Errorf("line total = %s, want 2100", line.Total)
	}

	if err := CheckSizeConservation(line); err != nil {
		t.Errorf("size conservation broken after edits: %v", err)
	}
}

func TestSetAllocationQuantity_Rejections(t *testing.T) {
	bill := &entity.Bill{Kind: entity.BillKindOrder}
	line, _ := AddLine(bill, multiSizeProduct(), entity.RoleRetailer)

	if err := SetAllocationQuantity(line, 5, 1); err == nil {
		t.Error("out-of-range index should be rejected")
	}
	if err := SetAllocationQuantity(line, 0, -1); err == nil {
		t.Error("negative quantity should be rejected")
	}

	var verr *ValidationError
	err := SetAllocationQuantity(line, 0, -1)
	if !errors.As(err, &verr) || verr.Field != "quantity" {
		t.Errorf("error should be a ValidationError naming quantity, got %v", err)
	}
}

func TestSetLineQuantity(t *testing.T) {
	t.Run("unsized line", func(t *testing.T) {
		product := multiSizeProduct()
		product.Sizes = nil

		bill := &entity.Bill{Kind: entity.BillKindOrder}
		line, _ := AddLine(bill, product, entity.RoleWholesaler)

		if err := SetLineQuantity(line, 12); err != nil {
			t.Fatalf("SetLineQuantity() failed: %v", err)
		}
		if line.Quantity != 12 {
			t.Errorf("quantity = %d, want 12", line.Quantity)
		}
	})

	t.Run("single-size line keeps allocation in sync", func(t *testing.T) {
		product := multiSizeProduct()
		product.Sizes = product.Sizes[:1]

		bill := &entity.Bill{Kind: entity.BillKindOrder}
		line, _ := AddLine(bill, product, entity.RoleWholesaler)

		if err := SetLineQuantity(line, 5); err != nil {
			t.Fatalf("SetLineQuantity() failed: %v", err)
		}
		if line.Sizes[0].Quantity != 5 {
			t.Errorf("allocation quantity = %d, want 5 (identical to line)", line.Sizes[0].Quantity)
		}
	})

	t.Run("multi-size line rejects direct edit", func(t *testing.T) {
		bill := &entity.Bill{Kind: entity.BillKindOrder}
		line, _ := AddLine(bill, multiSizeProduct(), entity.RoleWholesaler)

		if err := SetLineQuantity(line, 5); err == nil {
			t.Error("direct quantity edit on a multi-size line should be rejected")
		}
	})
}

func TestAddLine_DuplicateReferenceRejected(t *testing.T) {
	bill := &entity.Bill{Kind: entity.BillKindOrder}
	product := multiSizeProduct()

	if _, err := AddLine(bill, product, entity.RoleReseller); err != nil {
		t.Fatalf("first AddLine() failed: %v", err)
	}

	_, err := AddLine(bill, product, entity.RoleReseller)
	if err == nil {
		t.Fatal("second AddLine() with same product should be rejected")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("duplicate rejection should be a ValidationError, got %T", err)
	}

	if len(bill.Lines) != 1 {
		t.Errorf("bill has %d lines after rejected add, want 1", len(bill.Lines))
	}
}

func TestAddLine_PriceTierByRole(t *testing.T) {
	product := multiSizeProduct()

	tests := []struct {
		role entity.Role
		want string
	}{
		{entity.RoleWholesaler, "180"},
		{entity.RoleReseller, "210"},
		{entity.RoleRetailer, "250"},
		{entity.RoleVendor, "140"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			bill := &entity.Bill{}
			line, err := AddLine(bill, product, tt.role)
			if err != nil {
				t.Fatalf("AddLine() failed: %v", err)
			}
			if !line.UnitPrice.Equal(dec(tt.want)) {
				t.Errorf("unit price for %s = %s, want %s", tt.role, line.UnitPrice, tt.want)
			}
		})
	}
}

func TestRemoveLine(t *testing.T) {
	bill := &entity.Bill{Kind: entity.BillKindOrder}
	AddLine(bill, multiSizeProduct(), entity.RoleReseller)

	if err := RemoveLine(bill, 10); err != nil {
		t.Fatalf("RemoveLine() failed: %v", err)
	}
	if len(bill.Lines) != 0 {
		t.Errorf("bill has %d lines after removal, want 0", len(bill.Lines))
	}

	if err := RemoveLine(bill, 10); err == nil {
		t.Error("removing a missing line should be rejected")
	}
}

func TestCheckSizeConservation_Violation(t *testing.T) {
	line := &entity.LineItem{
		ProductID: 1,
		Quantity:  9,
		Sizes: []entity.SizeAllocation{
			{SizeID: 1, Quantity: 3},
			{SizeID: 2, Quantity: 4},
		},
	}

	err := CheckSizeConservation(line)
	if err == nil {
		t.Fatal("mismatched size sum should be an invariant violation")
	}

	var iv *InvariantViolation
	if !errors.As(err, &iv) {
		t.Errorf("error should be an InvariantViolation, got %T", err)
	}
}
