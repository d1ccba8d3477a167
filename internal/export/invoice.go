package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/resellkart/billing/internal/domain/billing"
	"github.com/resellkart/billing/internal/domain/entity"
)

const sheetName = "Invoice"

// InvoiceWriter renders a bill as an Excel invoice
type InvoiceWriter struct {
	companyName string
	logger      *zap.Logger
}

// NewInvoiceWriter creates a new invoice writer
func NewInvoiceWriter(companyName string, logger *zap.Logger) *InvoiceWriter {
	return &InvoiceWriter{
		companyName: companyName,
		logger:      logger,
	}
}

// Write renders the bill and its counterparty into a workbook and
// streams it to out. Purchase bills with expenses get a landing-cost
// column and purchase bills with payments get a ledger section; order
// bills get neither.
func (iw *InvoiceWriter) Write(bill *entity.Bill, counterparty *entity.Counterparty, out io.Writer) error {
	iw.logger.Info("Exporting bill invoice",
		zap.Int64("bill_id", bill.ID),
		zap.String("kind", string(bill.Kind)))

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create invoice sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	// Header block
	iw.setCell(f, "A1", iw.companyName)
	iw.setCell(f, "A2", BillNumber(bill))
	iw.setCell(f, "A3", bill.BillDate.Format("2006-01-02"))
	iw.setCell(f, "B4", counterparty.Name)
	iw.setCell(f, "A4", roleLabel(counterparty.Role))
	iw.setCell(f, "B5", bill.Status)
	iw.setCell(f, "A5", "Status")

	withLanding := bill.Kind == entity.BillKindPurchase && !bill.Expenses.IsZero()

	row := iw.writeLines(f, bill, withLanding, 7)
	row = iw.writeTotals(f, bill, withLanding, row+1)

	if bill.Kind == entity.BillKindPurchase && len(bill.Payments) > 0 {
		iw.writePayments(f, bill, row+1)
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write invoice workbook: %w", err)
	}

	iw.logger.Info("Bill invoice exported", zap.Int64("bill_id", bill.ID))
	return nil
}

// BillNumber is the human-facing document number for a bill
func BillNumber(bill *entity.Bill) string {
	if bill.Kind == entity.BillKindPurchase {
		return fmt.Sprintf("PUR-%d", bill.ID)
	}
	return fmt.Sprintf("ORD-%d", bill.ID)
}

// writeLines writes the item table and returns the last row used
func (iw *InvoiceWriter) writeLines(f *excelize.File, bill *entity.Bill, withLanding bool, row int) int {
	headers := []string{"Product", "Sizes", "Qty", "Unit Price", "Discount", "Total"}
	if withLanding {
		headers = append(headers, "Landing Cost/Unit")
	}
	for col, h := range headers {
		iw.setCellAt(f, col+1, row, h)
	}

	landingByProduct := make(map[int64]billing.LandingCost)
	if withLanding {
		for _, lc := range billing.LandingCosts(bill) {
			landingByProduct[lc.ProductID] = lc
		}
	}

	for _, line := range bill.Lines {
		if !line.IsComplete() {
			continue
		}
		row++
		iw.setCellAt(f, 1, row, line.ProductName)
		iw.setCellAt(f, 2, row, sizeBreakdown(&line))
		iw.setCellAt(f, 3, row, fmt.Sprintf("%d", line.Quantity))
		iw.setCellAt(f, 4, row, money(line.UnitPrice))
		iw.setCellAt(f, 5, row, money(line.DiscountAmount))
		iw.setCellAt(f, 6, row, money(line.Total))
		if lc, ok := landingByProduct[line.ProductID]; ok {
			iw.setCellAt(f, 7, row, money(lc.LandingCost))
		}
	}
	return row
}

// writeTotals writes the summary block and returns the last row used
func (iw *InvoiceWriter) writeTotals(f *excelize.File, bill *entity.Bill, withLanding bool, row int) int {
	put := func(label, value string) {
		iw.setCellAt(f, 5, row, label)
		iw.setCellAt(f, 6, row, value)
		row++
	}

	put("Subtotal", money(bill.Subtotal))
	put("Total Discount", money(bill.TotalDiscount))
	put("Grand Total", money(bill.GrandTotal))

	if withLanding {
		put("Shipping", money(bill.Expenses.Shipping))
		put("Packaging", money(bill.Expenses.Packaging))
		put("Misc", money(bill.Expenses.Misc))
		put("Bill Total", money(bill.BillTotal()))
	}
	if bill.Kind == entity.BillKindPurchase {
		put("Paid", money(bill.PaidAmount()))
		put("Balance", money(bill.Balance()))
	}
	return row - 1
}

func (iw *InvoiceWriter) writePayments(f *excelize.File, bill *entity.Bill, row int) {
	for col, h := range []string{"Paid On", "Mode", "Reference", "Amount"} {
		iw.setCellAt(f, col+1, row, h)
	}
	for _, p := range bill.Payments {
		row++
		iw.setCellAt(f, 1, row, p.PaidAt.Format("2006-01-02"))
		iw.setCellAt(f, 2, row, string(p.Mode))
		iw.setCellAt(f, 3, row, p.Reference)
		iw.setCellAt(f, 4, row, money(p.Amount))
	}
}

func (iw *InvoiceWriter) setCellAt(f *excelize.File, col, row int, value string) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		iw.logger.Warn("Invalid cell coordinates",
			zap.Int("col", col),
			zap.Int("row", row),
			zap.Error(err))
		return
	}
	iw.setCell(f, cell, value)
}

func (iw *InvoiceWriter) setCell(f *excelize.File, cell, value string) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		iw.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

// money renders a monetary value rounded to the currency's two minor
// units. Derived values like the landing cost keep full precision
// until this point.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// sizeBreakdown renders a line's allocations as "S:2 M:3". Unsized
// lines render as a dash.
func sizeBreakdown(line *entity.LineItem) string {
	if len(line.Sizes) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(line.Sizes))
	for _, a := range line.Sizes {
		if a.Quantity == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%d", a.SizeName, a.Quantity))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func roleLabel(role entity.Role) string {
	switch role {
	case entity.RoleVendor:
		return "Vendor"
	default:
		return "Customer"
	}
}
