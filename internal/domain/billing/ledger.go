package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellkart/billing/internal/domain/billstate"
	"github.com/resellkart/billing/internal/domain/entity"
)

// AddPayment validates a payment against the bill's current balance,
// appends it, and settles the bill if the balance reached zero. The
// bill is untouched when the payment is rejected.
//
// Rejections: non-positive amount, overpayment (amount greater than the
// outstanding balance — there is no partial-accept path), unknown mode,
// and a blank reference for modes that require one.
//
// The balance check here is against the in-memory aggregate; under
// concurrent writers the persistence layer must re-read the latest
// persisted balance inside its own transaction before committing the
// append.
func AddPayment(ctx context.Context, bill *entity.Bill, amount decimal.Decimal, mode entity.PaymentMode, reference string, paidAt time.Time) (*entity.Payment, error) {
	if bill.Kind != entity.BillKindPurchase {
		return nil, NewValidationError("bill", "only purchase bills carry a payments ledger")
	}
	if bill.Status == billstate.StateCancelled.String() {
		return nil, NewValidationError("bill", "cannot record a payment on a cancelled bill")
	}
	if !amount.IsPositive() {
		return nil, NewValidationError("amount", "payment amount must be positive")
	}
	if !mode.IsValid() {
		return nil, NewValidationError("mode", fmt.Sprintf("unknown payment mode %q", mode))
	}
	if mode.RequiresReference() && strings.TrimSpace(reference) == "" {
		return nil, NewValidationError("reference", fmt.Sprintf("payment mode %q requires a transaction reference", mode))
	}

	balance := bill.Balance()
	if balance.IsNegative() {
		return nil, &InvariantViolation{
			Detail: fmt.Sprintf("bill %d has negative balance %s", bill.ID, balance),
		}
	}
	if amount.GreaterThan(balance) {
		return nil, NewValidationError("amount", fmt.Sprintf("payment amount cannot exceed balance of %s", balance))
	}

	payment := entity.Payment{
		ID:        uuid.NewString(),
		BillID:    bill.ID,
		Amount:    amount,
		Mode:      mode,
		Reference: strings.TrimSpace(reference),
		PaidAt:    paidAt,
		CreatedAt: time.Now().UTC(),
	}
	bill.Payments = append(bill.Payments, payment)

	if err := settleIfCleared(ctx, bill); err != nil {
		// Roll the append back; the ledger never leaves a bill half-mutated
		bill.Payments = bill.Payments[:len(bill.Payments)-1]
		return nil, err
	}

	return &bill.Payments[len(bill.Payments)-1], nil
}

// settleIfCleared fires the pending→paid transition once the balance
// reaches zero. Fully settled bills stay paid; a cancelled bill never
// gets here because AddPayment rejects it earlier.
func settleIfCleared(ctx context.Context, bill *entity.Bill) error {
	if bill.Balance().IsPositive() {
		return nil
	}

	machine, err := billstate.New(billstate.State(bill.Status))
	if err != nil {
		return fmt.Errorf("bill %d has unknown status %q: %w", bill.ID, bill.Status, err)
	}
	if machine.State() == billstate.StatePaid {
		return nil
	}
	if err := machine.Fire(ctx, billstate.TriggerSettle); err != nil {
		return fmt.Errorf("settle bill %d: %w", bill.ID, err)
	}
	bill.Status = machine.State().String()
	return nil
}

// Cancel fires the explicit external cancellation transition. It is
// never derived from amounts and is terminal.
func Cancel(ctx context.Context, bill *entity.Bill) error {
	machine, err := billstate.New(billstate.State(bill.Status))
	if err != nil {
		return fmt.Errorf("bill %d has unknown status %q: %w", bill.ID, bill.Status, err)
	}
	if err := machine.Fire(ctx, billstate.TriggerCancel); err != nil {
		return fmt.Errorf("cancel bill %d: %w", bill.ID, err)
	}
	bill.Status = machine.State().String()
	return nil
}
