package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/resellkart/billing/internal/domain/billing"
	"github.com/resellkart/billing/internal/domain/billstate"
	"github.com/resellkart/billing/internal/domain/entity"
)

// PaymentRepository handles the append-only payments ledger. Payments
// are never updated or deleted once written.
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Append records a payment. The persisted paid-to-date is re-read
// inside the transaction, so two concurrent appends validate against
// the committed ledger rather than each caller's stale snapshot. When
// the append clears the balance the bill is flipped to paid in the
// same transaction.
func (r *PaymentRepository) Append(ctx context.Context, payment *entity.Payment, billTotal decimal.Decimal) (decimal.Decimal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	paid, err := r.paidToDate(ctx, tx, payment.BillID)
	if err != nil {
		return decimal.Zero, err
	}

	// Amounts are stored at the currency's two minor units
	amount := payment.Amount.Round(2)

	balance := billTotal.Sub(paid)
	if amount.GreaterThan(balance) {
		return decimal.Zero, billing.NewValidationError("amount",
			fmt.Sprintf("payment of %s exceeds outstanding balance of %s", amount, balance))
	}

	query := `
		INSERT INTO payments (id, bill_id, amount, mode, reference, paid_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		payment.ID,
		payment.BillID,
		amount,
		payment.Mode,
		payment.Reference,
		payment.PaidAt,
		payment.CreatedAt,
	); err != nil {
		r.logger.Error("Failed to create payment", zap.Int64("bill_id", payment.BillID), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to create payment: %w", err)
	}

	balance = balance.Sub(amount)
	if !balance.IsPositive() {
		statusQuery := `UPDATE bills SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
		if _, err := tx.ExecContext(ctx, statusQuery,
			billstate.StatePaid.String(),
			time.Now().UTC(),
			payment.BillID,
			billstate.StatePending.String(),
		); err != nil {
			return decimal.Zero, fmt.Errorf("failed to settle bill: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit payment: %w", err)
	}
	return balance, nil
}

// paidToDate sums the committed payments for a bill. The sum is done
// in Go because the amounts are stored as exact decimal text.
func (r *PaymentRepository) paidToDate(ctx context.Context, tx *sql.Tx, billID int64) (decimal.Decimal, error) {
	rows, err := tx.QueryContext(ctx, `SELECT amount FROM payments WHERE bill_id = ?`, billID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load payment amounts: %w", err)
	}
	defer rows.Close()

	paid := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan payment amount: %w", err)
		}
		paid = paid.Add(amount)
	}
	return paid, rows.Err()
}

// GetByBillID retrieves the payments for a bill, oldest first
func (r *PaymentRepository) GetByBillID(ctx context.Context, billID int64) ([]*entity.Payment, error) {
	query := `
		SELECT id, bill_id, amount, mode, reference, paid_at, created_at
		FROM payments
		WHERE bill_id = ?
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, billID)
	if err != nil {
		r.logger.Error("Failed to list payments", zap.Int64("bill_id", billID), zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.BillID, &p.Amount, &p.Mode, &p.Reference, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
