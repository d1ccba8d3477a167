package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resellkart/billing/internal/domain/billing"
	"github.com/resellkart/billing/internal/domain/billstate"
	"github.com/resellkart/billing/internal/domain/entity"
)

// mockPaymentRepo mimics the repository's transactional append: it
// re-reads the persisted paid-to-date before validating, and flips the
// bill to paid in the same step when the balance clears.
type mockPaymentRepo struct {
	billRepo *mockBillRepo
}

func newMockPaymentRepo(billRepo *mockBillRepo) *mockPaymentRepo {
	return &mockPaymentRepo{billRepo: billRepo}
}

func (m *mockPaymentRepo) Append(ctx context.Context, payment *entity.Payment, billTotal decimal.Decimal) (decimal.Decimal, error) {
	paid := decimal.Zero
	for _, p := range m.billRepo.payments[payment.BillID] {
		paid = paid.Add(p.Amount)
	}
	balance := billTotal.Sub(paid)
	if payment.Amount.GreaterThan(balance) {
		return decimal.Zero, fmt.Errorf("payment of %s exceeds balance of %s", payment.Amount, balance)
	}

	m.billRepo.payments[payment.BillID] = append(m.billRepo.payments[payment.BillID], *payment)
	balance = balance.Sub(payment.Amount)

	if !balance.IsPositive() {
		if bill, ok := m.billRepo.bills[payment.BillID]; ok {
			bill.Status = billstate.StatePaid.String()
		}
	}
	return balance, nil
}

func (m *mockPaymentRepo) GetByBillID(ctx context.Context, billID int64) ([]*entity.Payment, error) {
	out := make([]*entity.Payment, 0, len(m.billRepo.payments[billID]))
	for i := range m.billRepo.payments[billID] {
		out = append(out, &m.billRepo.payments[billID][i])
	}
	return out, nil
}

func newTestPurchaseService() (PurchaseService, *mockBillRepo, *mockPaymentRepo, *mockObserver) {
	billRepo := newMockBillRepo()
	paymentRepo := newMockPaymentRepo(billRepo)
	observer := &mockObserver{}
	svc := NewPurchaseService(billRepo, paymentRepo, testCounterparties(), testCatalog(), observer, &mockLogger{})
	return svc, billRepo, paymentRepo, observer
}

func createTestPurchase(t *testing.T, svc PurchaseService) *entity.Bill {
	t.Helper()
	bill, err := svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		VendorID: 9,
		Lines: []LineInput{
			{ProductID: 1, Quantity: 10},
			{ProductID: 2, SizeQuantities: map[int64]int{11: 2, 12: 3}},
		},
		Expenses: ExpensesInput{Shipping: dec("450")},
	})
	require.NoError(t, err)
	return bill
}

func TestPurchaseService_CreatePurchase(t *testing.T) {
	svc, _, _, observer := newTestPurchaseService()

	bill := createTestPurchase(t, svc)

	// Vendor tier prices the lines at purchase cost: 10×320 + 5×140
	assert.True(t, bill.GrandTotal.Equal(dec("3900")), "grand total = %s", bill.GrandTotal)
	assert.True(t, bill.BillTotal().Equal(dec("4350")), "bill total = %s", bill.BillTotal())
	assert.Equal(t, billstate.StatePending.String(), bill.Status)
	assert.Equal(t, []int64{bill.ID}, observer.changed)
}

func TestPurchaseService_CreatePurchase_ZeroTotalStillPending(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()

	// A free sample bill: grand total 0 after a full discount. It must
	// still enter the lifecycle at pending, never auto-paid at creation.
	bill, err := svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		VendorID: 9,
		Lines: []LineInput{
			{ProductID: 1, Quantity: 1, DiscountType: "percentage", DiscountValue: dec("100")},
		},
	})
	require.NoError(t, err)

	assert.True(t, bill.GrandTotal.IsZero())
	assert.Equal(t, billstate.StatePending.String(), bill.Status)
}

func TestPurchaseService_GetPurchase_LandingCosts(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()
	bill := createTestPurchase(t, svc)

	view, err := svc.GetPurchase(context.Background(), bill.ID)
	require.NoError(t, err)

	// 450 of shipping across 15 units: 30 per unit
	assert.True(t, view.HasExpenses)
	assert.True(t, view.PerUnitShare.Equal(dec("30")), "per-unit share = %s", view.PerUnitShare)
	require.Len(t, view.LandingCosts, 2)
	assert.True(t, view.LandingCosts[0].LandingCost.Equal(dec("350")), "landing cost = %s", view.LandingCosts[0].LandingCost)
	assert.True(t, view.LandingCosts[1].LandingCost.Equal(dec("170")), "landing cost = %s", view.LandingCosts[1].LandingCost)
}

func TestPurchaseService_UpdateExpenses(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()
	bill := createTestPurchase(t, svc)

	view, err := svc.UpdateExpenses(context.Background(), bill.ID, ExpensesInput{
		Shipping:  dec("300"),
		Packaging: dec("150"),
	})
	require.NoError(t, err)

	// Same 450 total, new split; landing view re-derived
	assert.True(t, view.PerUnitShare.Equal(dec("30")), "per-unit share = %s", view.PerUnitShare)
	assert.True(t, view.Bill.Expenses.Packaging.Equal(dec("150")))
}

func TestPurchaseService_UpdateExpenses_BelowPaidRejected(t *testing.T) {
	svc, billRepo, _, _ := newTestPurchaseService()
	bill := createTestPurchase(t, svc)

	_, err := svc.RecordPayment(context.Background(), bill.ID, PaymentInput{Amount: dec("4000"), Mode: "cash"})
	require.NoError(t, err)

	// Dropping all expenses would pull the bill total to 3900, below
	// the 4000 already collected
	_, err = svc.UpdateExpenses(context.Background(), bill.ID, ExpensesInput{})

	var verr *billing.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "expenses", verr.Field)

	saved, getErr := billRepo.GetByID(context.Background(), bill.ID)
	require.NoError(t, getErr)
	assert.True(t, saved.Expenses.Shipping.Equal(dec("450")), "rejected revision must not be saved")
	assert.False(t, saved.Balance().IsNegative(), "balance = %s", saved.Balance())
	assert.Equal(t, billstate.StatePending.String(), saved.Status)
}

func TestPurchaseService_UpdateExpenses_ReductionToPaidAmountSettles(t *testing.T) {
	svc, billRepo, _, _ := newTestPurchaseService()
	bill := createTestPurchase(t, svc)

	_, err := svc.RecordPayment(context.Background(), bill.ID, PaymentInput{Amount: dec("4000"), Mode: "cash"})
	require.NoError(t, err)

	// Shipping down to 100 puts the bill total at exactly the paid 4000
	view, err := svc.UpdateExpenses(context.Background(), bill.ID, ExpensesInput{Shipping: dec("100")})
	require.NoError(t, err)

	assert.True(t, view.Bill.Balance().IsZero(), "balance = %s", view.Bill.Balance())
	assert.Equal(t, billstate.StatePaid.String(), view.Bill.Status)

	saved, _ := billRepo.GetByID(context.Background(), bill.ID)
	assert.Equal(t, billstate.StatePaid.String(), saved.Status)
}

func TestPurchaseService_UpdateExpenses_NegativeRejected(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()
	bill := createTestPurchase(t, svc)

	_, err := svc.UpdateExpenses(context.Background(), bill.ID, ExpensesInput{Shipping: dec("-5")})

	var verr *billing.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "shipping", verr.Field)
}

func TestPurchaseService_RecordPayment(t *testing.T) {
	svc, _, paymentRepo, _ := newTestPurchaseService()
	bill := createTestPurchase(t, svc)

	updated, err := svc.RecordPayment(context.Background(), bill.ID, PaymentInput{
		Amount:    dec("2000"),
		Mode:      "bank_transfer",
		Reference: "NEFT-884213",
	})
	require.NoError(t, err)

	assert.True(t, updated.Balance().Equal(dec("2350")), "balance = %s", updated.Balance())
	assert.Equal(t, billstate.StatePending.String(), updated.Status)

	persisted, _ := paymentRepo.GetByBillID(context.Background(), bill.ID)
	require.Len(t, persisted, 1)
	assert.True(t, persisted[0].Amount.Equal(dec("2000")))
}

func TestPurchaseService_RecordPayment_AutoPaid(t *testing.T) {
	svc, billRepo, _, _ := newTestPurchaseService()
	bill := createTestPurchase(t, svc)

	_, err := svc.RecordPayment(context.Background(), bill.ID, PaymentInput{Amount: dec("4000"), Mode: "cash"})
	require.NoError(t, err)

	saved, _ := billRepo.GetByID(context.Background(), bill.ID)
	assert.Equal(t, billstate.StatePending.String(), saved.Status, "not yet settled")

	updated, err := svc.RecordPayment(context.Background(), bill.ID, PaymentInput{Amount: dec("350"), Mode: "cash"})
	require.NoError(t, err)
	assert.Equal(t, billstate.StatePaid.String(), updated.Status)

	saved, _ = billRepo.GetByID(context.Background(), bill.ID)
	assert.Equal(t, billstate.StatePaid.String(), saved.Status)
}

func TestPurchaseService_RecordPayment_OverpaymentRejected(t *testing.T) {
	svc, _, paymentRepo, _ := newTestPurchaseService()
	bill := createTestPurchase(t, svc)

	_, err := svc.RecordPayment(context.Background(), bill.ID, PaymentInput{Amount: dec("5000"), Mode: "cash"})

	var verr *billing.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)

	persisted, _ := paymentRepo.GetByBillID(context.Background(), bill.ID)
	assert.Empty(t, persisted, "rejected payment must not be persisted")
}

func TestPurchaseService_RecordPayment_ReferenceRequired(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()
	bill := createTestPurchase(t, svc)

	for _, mode := range []string{"bank_transfer", "upi", "cheque"} {
		_, err := svc.RecordPayment(context.Background(), bill.ID, PaymentInput{Amount: dec("100"), Mode: mode})

		var verr *billing.ValidationError
		require.ErrorAs(t, err, &verr, "mode %s", mode)
		assert.Equal(t, "reference", verr.Field)
	}
}

func TestPurchaseService_CancelPurchase_ThenPaymentRejected(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()
	bill := createTestPurchase(t, svc)

	require.NoError(t, svc.CancelPurchase(context.Background(), bill.ID))

	_, err := svc.RecordPayment(context.Background(), bill.ID, PaymentInput{Amount: dec("100"), Mode: "cash"})

	var verr *billing.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "bill", verr.Field)
}

func TestPurchaseService_NonVendorRejected(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()

	_, err := svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		VendorID: 5, // a retailer
		Lines:    []LineInput{{ProductID: 1, Quantity: 1}},
	})

	var verr *billing.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "vendor", verr.Field)
}
