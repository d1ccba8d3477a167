package http

import (
	"github.com/resellkart/billing/internal/application/service"
	"github.com/resellkart/billing/internal/domain/billing"
	"github.com/resellkart/billing/internal/domain/entity"
)

// Monetary values keep full precision inside the engine and round to
// the currency's two minor units only here, as they leave the API.
// Derived quotients like the per-unit expense share would otherwise
// serialize with sixteen fractional digits. The originals are never
// mutated; handlers respond with rounded copies.

func roundedBill(bill *entity.Bill) *entity.Bill {
	if bill == nil {
		return nil
	}
	out := *bill
	out.Subtotal = bill.Subtotal.Round(2)
	out.TotalDiscount = bill.TotalDiscount.Round(2)
	out.GrandTotal = bill.GrandTotal.Round(2)
	out.Expenses = entity.Expenses{
		Shipping:  bill.Expenses.Shipping.Round(2),
		Packaging: bill.Expenses.Packaging.Round(2),
		Misc:      bill.Expenses.Misc.Round(2),
	}

	if len(bill.Lines) > 0 {
		out.Lines = make([]entity.LineItem, len(bill.Lines))
		for i, line := range bill.Lines {
			line.UnitPrice = line.UnitPrice.Round(2)
			line.UnitCost = line.UnitCost.Round(2)
			line.DiscountAmount = line.DiscountAmount.Round(2)
			line.Total = line.Total.Round(2)
			out.Lines[i] = line
		}
	}
	if len(bill.Payments) > 0 {
		out.Payments = make([]entity.Payment, len(bill.Payments))
		for i, p := range bill.Payments {
			p.Amount = p.Amount.Round(2)
			out.Payments[i] = p
		}
	}
	return &out
}

func roundedBills(bills []*entity.Bill) []*entity.Bill {
	out := make([]*entity.Bill, len(bills))
	for i, bill := range bills {
		out[i] = roundedBill(bill)
	}
	return out
}

func roundedView(view *service.PurchaseView) *service.PurchaseView {
	if view == nil {
		return nil
	}
	out := *view
	out.Bill = roundedBill(view.Bill)
	out.PerUnitShare = view.PerUnitShare.Round(2)
	if len(view.LandingCosts) > 0 {
		out.LandingCosts = make([]billing.LandingCost, len(view.LandingCosts))
		for i, lc := range view.LandingCosts {
			lc.UnitCost = lc.UnitCost.Round(2)
			lc.PerUnitShare = lc.PerUnitShare.Round(2)
			lc.LandingCost = lc.LandingCost.Round(2)
			out.LandingCosts[i] = lc
		}
	}
	return &out
}
