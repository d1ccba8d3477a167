package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/resellkart/billing/internal/domain/entity"
)

// BillRepository defines persistence operations for Bill aggregates.
// Create and Update are atomic per bill: the bill row, its lines, and
// their size allocations are written in one transaction, never
// partially.
type BillRepository interface {
	Create(ctx context.Context, bill *entity.Bill) error
	GetByID(ctx context.Context, id int64) (*entity.Bill, error)
	Update(ctx context.Context, bill *entity.Bill) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateExpenses(ctx context.Context, id int64, expenses entity.Expenses) error
	List(ctx context.Context, kind entity.BillKind, limit, offset int) ([]*entity.Bill, error)
}

// PaymentRepository defines persistence operations for the append-only
// payments ledger. There is deliberately no update or delete: payments
// are immutable once created.
type PaymentRepository interface {
	// Append records a payment after re-reading the bill's persisted
	// paid-to-date inside the same transaction, so a concurrent append
	// cannot validate against a stale balance. billTotal is the
	// authoritative amount the ledger settles against. When the append
	// clears the balance the bill's status is flipped to paid in the
	// same transaction. Returns the new outstanding balance.
	Append(ctx context.Context, payment *entity.Payment, billTotal decimal.Decimal) (decimal.Decimal, error)

	GetByBillID(ctx context.Context, billID int64) ([]*entity.Payment, error)
}

// CounterpartyRepository defines lookups for the accounts a bill can be
// written against
type CounterpartyRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Counterparty, error)
	List(ctx context.Context, role entity.Role, limit, offset int) ([]*entity.Counterparty, error)
}
