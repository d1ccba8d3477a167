package billing

import (
	"errors"
	"testing"

	"github.com/resellkart/billing/internal/domain/entity"
)

func orderBillWithLines() *entity.Bill {
	bill := &entity.Bill{
		Kind:             entity.BillKindOrder,
		CounterpartyID:   5,
		CounterpartyRole: entity.RoleReseller,
	}

	bill.Lines = []entity.LineItem{
		{
			ProductID:   1,
			ProductName: "Cotton Saree",
			UnitPrice:   dec("100"),
			Quantity:    3,
			Discount:    entity.Discount{Type: entity.DiscountPercentage, Value: dec("10")},
		},
		{
			ProductID:   2,
			ProductName: "Silk Dupatta",
			UnitPrice:   dec("50"),
			Quantity:    2,
			Discount:    entity.NoDiscount(),
		},
	}
	return bill
}

func TestRecalculate(t *testing.T) {
	bill := orderBillWithLines()

	Recalculate(bill)

	if !bill.Subtotal.Equal(dec("400")) {
		t.Errorf("Subtotal = %s, want 400", bill.Subtotal)
	}
	if !bill.TotalDiscount.Equal(dec("30")) {
		t.Errorf("TotalDiscount = %s, want 30", bill.TotalDiscount)
	}
	if !bill.GrandTotal.Equal(dec("370")) {
		t.Errorf("GrandTotal = %s, want 370", bill.GrandTotal)
	}
}

func TestRecalculate_GrandTotalReconcilesWithLines(t *testing.T) {
	bill := orderBillWithLines()
	Recalculate(bill)

	sum := dec("0")
	for i := range bill.Lines {
		sum = sum.Add(bill.Lines[i].Total)
	}
	if !bill.GrandTotal.Equal(sum) {
		t.Errorf("GrandTotal = %s, want Σ line.total = %s", bill.GrandTotal, sum)
	}
}

func TestAggregate_ExcludesIncompleteLines(t *testing.T) {
	bill := orderBillWithLines()
	// A row the user added but never picked a product for
	bill.Lines = append(bill.Lines, entity.LineItem{
		UnitPrice: dec("9999"),
		Quantity:  100,
	})

	Recalculate(bill)

	if !bill.GrandTotal.Equal(dec("370")) {
		t.Errorf("GrandTotal = %s, want 370 (incomplete line must not corrupt totals)", bill.GrandTotal)
	}
}

func TestRecalculate_Idempotent(t *testing.T) {
	bill := orderBillWithLines()

	Recalculate(bill)
	first := bill.GrandTotal

	Recalculate(bill)
	if !bill.GrandTotal.Equal(first) {
		t.Errorf("second Recalculate changed GrandTotal: %s vs %s", bill.GrandTotal, first)
	}
}

func TestValidateForSubmit(t *testing.T) {
	t.Run("valid order bill", func(t *testing.T) {
		bill := orderBillWithLines()
		Recalculate(bill)
		if err := ValidateForSubmit(bill); err != nil {
			t.Errorf("ValidateForSubmit() failed: %v", err)
		}
	})

	t.Run("no complete lines", func(t *testing.T) {
		bill := &entity.Bill{
			Kind:             entity.BillKindOrder,
			CounterpartyID:   5,
			CounterpartyRole: entity.RoleReseller,
			Lines:            []entity.LineItem{{Quantity: 2}},
		}
		assertValidationField(t, ValidateForSubmit(bill), "lines")
	})

	t.Run("zero quantity line", func(t *testing.T) {
		bill := orderBillWithLines()
		bill.Lines[0].Quantity = 0
		assertValidationField(t, ValidateForSubmit(bill), "quantity")
	})

	t.Run("missing counterparty", func(t *testing.T) {
		bill := orderBillWithLines()
		bill.CounterpartyID = 0
		assertValidationField(t, ValidateForSubmit(bill), "counterparty")
	})

	t.Run("vendor on an order bill", func(t *testing.T) {
		bill := orderBillWithLines()
		bill.CounterpartyRole = entity.RoleVendor
		assertValidationField(t, ValidateForSubmit(bill), "counterparty_role")
	})

	t.Run("purchase bill needs positive cost", func(t *testing.T) {
		bill := orderBillWithLines()
		bill.Kind = entity.BillKindPurchase
		bill.CounterpartyRole = entity.RoleVendor
		assertValidationField(t, ValidateForSubmit(bill), "unit_cost")
	})

	t.Run("duplicate product reference is an invariant violation", func(t *testing.T) {
		bill := orderBillWithLines()
		bill.Lines[1].ProductID = bill.Lines[0].ProductID

		err := ValidateForSubmit(bill)
		var iv *InvariantViolation
		if !errors.As(err, &iv) {
			t.Errorf("duplicate reference should be an InvariantViolation, got %v", err)
		}
	})
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != field {
		t.Errorf("ValidationError field = %q, want %q", verr.Field, field)
	}
}

func TestStripIncompleteLines(t *testing.T) {
	bill := orderBillWithLines()
	bill.Lines = append(bill.Lines, entity.LineItem{Quantity: 3})

	StripIncompleteLines(bill)

	if len(bill.Lines) != 2 {
		t.Errorf("got %d lines after strip, want 2", len(bill.Lines))
	}
	for i := range bill.Lines {
		if !bill.Lines[i].IsComplete() {
			t.Error("an incomplete line survived the strip")
		}
	}
}
