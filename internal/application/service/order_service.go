package service

import (
	"context"
	"fmt"
	"time"

	"github.com/resellkart/billing/internal/application/port"
	"github.com/resellkart/billing/internal/domain/billing"
	"github.com/resellkart/billing/internal/domain/billstate"
	"github.com/resellkart/billing/internal/domain/entity"
)

// Logger is the narrow logging interface the services depend on
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateOrderInput is the submission contract for an order bill
type CreateOrderInput struct {
	CounterpartyID int64       `json:"counterparty_id"`
	BillDate       time.Time   `json:"bill_date"`
	Lines          []LineInput `json:"lines"`

	// Settled marks the order as paid at save time. Order bills have
	// no payments ledger; their status is chosen once, on submission.
	Settled bool `json:"settled"`
}

// OrderService manages order bills: sales to wholesalers, resellers
// and retailers
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*entity.Bill, error)
	GetOrder(ctx context.Context, id int64) (*entity.Bill, error)
	ListOrders(ctx context.Context, limit, offset int) ([]*entity.Bill, error)
	CancelOrder(ctx context.Context, id int64) error
}

type orderServiceImpl struct {
	billRepo         port.BillRepository
	counterpartyRepo port.CounterpartyRepository
	catalog          port.Catalog
	observer         port.BillObserver
	logger           Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	billRepo port.BillRepository,
	counterpartyRepo port.CounterpartyRepository,
	catalog port.Catalog,
	observer port.BillObserver,
	logger Logger,
) OrderService {
	return &orderServiceImpl{
		billRepo:         billRepo,
		counterpartyRepo: counterpartyRepo,
		catalog:          catalog,
		observer:         observer,
		logger:           logger,
	}
}

// CreateOrder builds, validates and persists an order bill. The unit
// price of every line comes from the counterparty role's price tier.
// An invalid submission is rejected in full; nothing is half-saved.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, input CreateOrderInput) (*entity.Bill, error) {
	counterparty, err := s.counterpartyRepo.GetByID(ctx, input.CounterpartyID)
	if err != nil {
		s.logger.Error("Failed to resolve counterparty", "error", err, "counterparty_id", input.CounterpartyID)
		return nil, fmt.Errorf("resolve counterparty: %w", err)
	}
	if !counterparty.Role.IsBuyer() {
		return nil, billing.NewValidationError("counterparty", "order bills require a wholesaler, reseller or retailer")
	}

	billDate := input.BillDate
	if billDate.IsZero() {
		billDate = time.Now().UTC()
	}

	bill := &entity.Bill{
		Kind:             entity.BillKindOrder,
		CounterpartyID:   counterparty.ID,
		CounterpartyRole: counterparty.Role,
		BillDate:         billDate,
		Status:           billstate.StatePending.String(),
	}

	if err := assembleLines(ctx, s.catalog, bill, input.Lines); err != nil {
		return nil, err
	}
	if err := billing.ValidateForSubmit(bill); err != nil {
		return nil, err
	}

	// Every bill enters the machine at pending; an order marked as
	// settled fires the settle transition at save time.
	if input.Settled {
		machine, err := billstate.New(billstate.StatePending)
		if err != nil {
			return nil, err
		}
		if err := machine.Fire(ctx, billstate.TriggerSettle); err != nil {
			return nil, fmt.Errorf("settle order at save: %w", err)
		}
		bill.Status = machine.State().String()
	}

	if err := s.billRepo.Create(ctx, bill); err != nil {
		s.logger.Error("Failed to save order bill", "error", err, "counterparty_id", counterparty.ID)
		return nil, fmt.Errorf("save order bill: %w", err)
	}

	s.logger.Info("Order bill created",
		"bill_id", bill.ID,
		"counterparty_id", counterparty.ID,
		"role", counterparty.Role,
		"grand_total", bill.GrandTotal.String(),
		"status", bill.Status)

	s.notify(ctx, bill)
	return bill, nil
}

// GetOrder retrieves an order bill by id
func (s *orderServiceImpl) GetOrder(ctx context.Context, id int64) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bill %d: %w", id, err)
	}
	if bill.Kind != entity.BillKindOrder {
		return nil, billing.NewValidationError("bill", fmt.Sprintf("bill %d is not an order bill", id))
	}
	return bill, nil
}

// ListOrders returns order bills, newest first
func (s *orderServiceImpl) ListOrders(ctx context.Context, limit, offset int) ([]*entity.Bill, error) {
	return s.billRepo.List(ctx, entity.BillKindOrder, limit, offset)
}

// CancelOrder fires the explicit external cancellation transition
func (s *orderServiceImpl) CancelOrder(ctx context.Context, id int64) error {
	bill, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if err := billing.Cancel(ctx, bill); err != nil {
		return err
	}
	if err := s.billRepo.UpdateStatus(ctx, id, bill.Status); err != nil {
		s.logger.Error("Failed to persist cancellation", "error", err, "bill_id", id)
		return fmt.Errorf("persist cancellation: %w", err)
	}

	s.logger.Info("Order bill cancelled", "bill_id", id)
	s.notify(ctx, bill)
	return nil
}

func (s *orderServiceImpl) notify(ctx context.Context, bill *entity.Bill) {
	if s.observer != nil {
		s.observer.BillChanged(ctx, bill)
	}
}
