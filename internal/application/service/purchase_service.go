package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/resellkart/billing/internal/application/port"
	"github.com/resellkart/billing/internal/domain/billing"
	"github.com/resellkart/billing/internal/domain/billstate"
	"github.com/resellkart/billing/internal/domain/entity"
)

// ExpensesInput carries the shared overhead amounts on a purchase bill
type ExpensesInput struct {
	Shipping  decimal.Decimal `json:"shipping"`
	Packaging decimal.Decimal `json:"packaging"`
	Misc      decimal.Decimal `json:"misc"`
}

// CreatePurchaseInput is the submission contract for a purchase bill
type CreatePurchaseInput struct {
	VendorID int64         `json:"vendor_id"`
	BillDate time.Time     `json:"bill_date"`
	Lines    []LineInput   `json:"lines"`
	Expenses ExpensesInput `json:"expenses"`
}

// PaymentInput is one payment submitted against a purchase bill
type PaymentInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Mode      string          `json:"mode"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paid_at,omitempty"`
}

// PurchaseView is a purchase bill with its derived landing-cost data.
// HasExpenses gates the landing-cost invoice view: it only appears
// once at least one expense is non-zero.
type PurchaseView struct {
	Bill         *entity.Bill          `json:"bill"`
	PerUnitShare decimal.Decimal       `json:"per_unit_share"`
	LandingCosts []billing.LandingCost `json:"landing_costs"`
	HasExpenses  bool                  `json:"has_expenses"`
}

// PurchaseService manages purchase bills: buys from vendors, their
// overhead expenses, and their payments ledger
type PurchaseService interface {
	CreatePurchase(ctx context.Context, input CreatePurchaseInput) (*entity.Bill, error)
	GetPurchase(ctx context.Context, id int64) (*PurchaseView, error)
	ListPurchases(ctx context.Context, limit, offset int) ([]*entity.Bill, error)
	UpdateExpenses(ctx context.Context, id int64, input ExpensesInput) (*PurchaseView, error)
	RecordPayment(ctx context.Context, id int64, input PaymentInput) (*entity.Bill, error)
	CancelPurchase(ctx context.Context, id int64) error
}

type purchaseServiceImpl struct {
	billRepo         port.BillRepository
	paymentRepo      port.PaymentRepository
	counterpartyRepo port.CounterpartyRepository
	catalog          port.Catalog
	observer         port.BillObserver
	logger           Logger
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(
	billRepo port.BillRepository,
	paymentRepo port.PaymentRepository,
	counterpartyRepo port.CounterpartyRepository,
	catalog port.Catalog,
	observer port.BillObserver,
	logger Logger,
) PurchaseService {
	return &purchaseServiceImpl{
		billRepo:         billRepo,
		paymentRepo:      paymentRepo,
		counterpartyRepo: counterpartyRepo,
		catalog:          catalog,
		observer:         observer,
		logger:           logger,
	}
}

// CreatePurchase builds, validates and persists a purchase bill.
// Every purchase bill starts pending, whatever its totals; settlement
// only ever happens through the payments ledger.
func (s *purchaseServiceImpl) CreatePurchase(ctx context.Context, input CreatePurchaseInput) (*entity.Bill, error) {
	vendor, err := s.counterpartyRepo.GetByID(ctx, input.VendorID)
	if err != nil {
		s.logger.Error("Failed to resolve vendor", "error", err, "vendor_id", input.VendorID)
		return nil, fmt.Errorf("resolve vendor: %w", err)
	}
	if vendor.Role != entity.RoleVendor {
		return nil, billing.NewValidationError("vendor", "purchase bills require a vendor counterparty")
	}

	expenses, err := validateExpenses(input.Expenses)
	if err != nil {
		return nil, err
	}

	billDate := input.BillDate
	if billDate.IsZero() {
		billDate = time.Now().UTC()
	}

	bill := &entity.Bill{
		Kind:             entity.BillKindPurchase,
		CounterpartyID:   vendor.ID,
		CounterpartyRole: entity.RoleVendor,
		BillDate:         billDate,
		Expenses:         expenses,
		Status:           billstate.StatePending.String(),
	}

	if err := assembleLines(ctx, s.catalog, bill, input.Lines); err != nil {
		return nil, err
	}
	if err := billing.ValidateForSubmit(bill); err != nil {
		return nil, err
	}

	if err := s.billRepo.Create(ctx, bill); err != nil {
		s.logger.Error("Failed to save purchase bill", "error", err, "vendor_id", vendor.ID)
		return nil, fmt.Errorf("save purchase bill: %w", err)
	}

	s.logger.Info("Purchase bill created",
		"bill_id", bill.ID,
		"vendor_id", vendor.ID,
		"grand_total", bill.GrandTotal.String(),
		"extra_charges", bill.Expenses.Total().String())

	s.notify(ctx, bill)
	return bill, nil
}

// GetPurchase retrieves a purchase bill with its landing-cost view
func (s *purchaseServiceImpl) GetPurchase(ctx context.Context, id int64) (*PurchaseView, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bill %d: %w", id, err)
	}
	if bill.Kind != entity.BillKindPurchase {
		return nil, billing.NewValidationError("bill", fmt.Sprintf("bill %d is not a purchase bill", id))
	}
	return newPurchaseView(bill), nil
}

// ListPurchases returns purchase bills, newest first
func (s *purchaseServiceImpl) ListPurchases(ctx context.Context, limit, offset int) ([]*entity.Bill, error) {
	return s.billRepo.List(ctx, entity.BillKindPurchase, limit, offset)
}

// UpdateExpenses replaces the bill's shared overhead and re-derives the
// landing-cost view. Only pending bills accept expense changes: a
// settled bill's total is already fixed by its payments. A reduction
// that would pull the bill total below the amount already collected is
// rejected, so the balance stays non-negative.
func (s *purchaseServiceImpl) UpdateExpenses(ctx context.Context, id int64, input ExpensesInput) (*PurchaseView, error) {
	view, err := s.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	bill := view.Bill
	if bill.Status != billstate.StatePending.String() {
		return nil, billing.NewValidationError("bill", fmt.Sprintf("cannot change expenses on a %s bill", bill.Status))
	}

	expenses, err := validateExpenses(input)
	if err != nil {
		return nil, err
	}

	if err := billing.ReviseExpenses(ctx, bill, expenses); err != nil {
		return nil, err
	}
	if err := s.billRepo.UpdateExpenses(ctx, id, expenses); err != nil {
		s.logger.Error("Failed to update expenses", "error", err, "bill_id", id)
		return nil, fmt.Errorf("update expenses: %w", err)
	}
	if bill.Status != billstate.StatePending.String() {
		// The revision landed exactly on the paid amount
		if err := s.billRepo.UpdateStatus(ctx, id, bill.Status); err != nil {
			s.logger.Error("Failed to persist settlement", "error", err, "bill_id", id)
			return nil, fmt.Errorf("persist settlement: %w", err)
		}
	}

	s.logger.Info("Purchase bill expenses updated",
		"bill_id", id,
		"extra_charges", expenses.Total().String())

	s.notify(ctx, bill)
	return newPurchaseView(bill), nil
}

// RecordPayment appends a payment to the bill's ledger. The domain
// check runs against the freshly loaded aggregate and the repository
// re-validates against the persisted balance inside its transaction,
// so a concurrent append can never overdraw the bill.
func (s *purchaseServiceImpl) RecordPayment(ctx context.Context, id int64, input PaymentInput) (*entity.Bill, error) {
	view, err := s.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	bill := view.Bill

	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	payment, err := billing.AddPayment(ctx, bill, input.Amount, entity.PaymentMode(input.Mode), input.Reference, paidAt)
	if err != nil {
		return nil, err
	}

	balance, err := s.paymentRepo.Append(ctx, payment, bill.BillTotal())
	if err != nil {
		s.logger.Error("Failed to persist payment", "error", err, "bill_id", id, "amount", input.Amount.String())
		return nil, err
	}

	s.logger.Info("Payment recorded",
		"bill_id", id,
		"payment_id", payment.ID,
		"amount", payment.Amount.String(),
		"mode", payment.Mode,
		"balance", balance.String(),
		"status", bill.Status)

	s.notify(ctx, bill)
	return bill, nil
}

// CancelPurchase fires the explicit external cancellation transition
func (s *purchaseServiceImpl) CancelPurchase(ctx context.Context, id int64) error {
	view, err := s.GetPurchase(ctx, id)
	if err != nil {
		return err
	}
	bill := view.Bill

	if err := billing.Cancel(ctx, bill); err != nil {
		return err
	}
	if err := s.billRepo.UpdateStatus(ctx, id, bill.Status); err != nil {
		s.logger.Error("Failed to persist cancellation", "error", err, "bill_id", id)
		return fmt.Errorf("persist cancellation: %w", err)
	}

	s.logger.Info("Purchase bill cancelled", "bill_id", id)
	s.notify(ctx, bill)
	return nil
}

func (s *purchaseServiceImpl) notify(ctx context.Context, bill *entity.Bill) {
	if s.observer != nil {
		s.observer.BillChanged(ctx, bill)
	}
}

func newPurchaseView(bill *entity.Bill) *PurchaseView {
	return &PurchaseView{
		Bill:         bill,
		PerUnitShare: billing.Distribute(bill.Expenses.Total(), bill.TotalUnits()),
		LandingCosts: billing.LandingCosts(bill),
		HasExpenses:  !bill.Expenses.IsZero(),
	}
}

func validateExpenses(input ExpensesInput) (entity.Expenses, error) {
	if input.Shipping.IsNegative() {
		return entity.Expenses{}, billing.NewValidationError("shipping", "shipping expense cannot be negative")
	}
	if input.Packaging.IsNegative() {
		return entity.Expenses{}, billing.NewValidationError("packaging", "packaging expense cannot be negative")
	}
	if input.Misc.IsNegative() {
		return entity.Expenses{}, billing.NewValidationError("misc", "misc expense cannot be negative")
	}
	return entity.Expenses{
		Shipping:  input.Shipping,
		Packaging: input.Packaging,
		Misc:      input.Misc,
	}, nil
}
