package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/resellkart/billing/internal/domain/entity"
)

// BillRepository handles bill aggregate database operations. A bill,
// its lines and their size allocations are always written in one
// transaction. Money columns are stored at the currency's two minor
// units.
type BillRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *sql.DB, logger *zap.Logger) *BillRepository {
	return &BillRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new bill with its lines and allocations
func (r *BillRepository) Create(ctx context.Context, bill *entity.Bill) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	bill.CreatedAt = now
	bill.UpdatedAt = now

	query := `
		INSERT INTO bills (
			kind, counterparty_id, counterparty_role, bill_date,
			subtotal, total_discount, grand_total,
			shipping, packaging, misc, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		bill.Kind,
		bill.CounterpartyID,
		bill.CounterpartyRole,
		bill.BillDate,
		bill.Subtotal.Round(2),
		bill.TotalDiscount.Round(2),
		bill.GrandTotal.Round(2),
		bill.Expenses.Shipping.Round(2),
		bill.Expenses.Packaging.Round(2),
		bill.Expenses.Misc.Round(2),
		bill.Status,
		bill.CreatedAt,
		bill.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create bill", zap.Error(err))
		return fmt.Errorf("failed to create bill: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	bill.ID = id

	if err := r.insertLines(ctx, tx, bill); err != nil {
		return err
	}

	return tx.Commit()
}

// Update rewrites the bill row and replaces its lines in full
func (r *BillRepository) Update(ctx context.Context, bill *entity.Bill) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	bill.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE bills SET
			counterparty_id = ?, counterparty_role = ?, bill_date = ?,
			subtotal = ?, total_discount = ?, grand_total = ?,
			shipping = ?, packaging = ?, misc = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, query,
		bill.CounterpartyID,
		bill.CounterpartyRole,
		bill.BillDate,
		bill.Subtotal.Round(2),
		bill.TotalDiscount.Round(2),
		bill.GrandTotal.Round(2),
		bill.Expenses.Shipping.Round(2),
		bill.Expenses.Packaging.Round(2),
		bill.Expenses.Misc.Round(2),
		bill.Status,
		bill.UpdatedAt,
		bill.ID,
	); err != nil {
		r.logger.Error("Failed to update bill", zap.Int64("id", bill.ID), zap.Error(err))
		return fmt.Errorf("failed to update bill: %w", err)
	}

	// Lines are replaced wholesale; line_sizes rows cascade
	if _, err := tx.ExecContext(ctx, `DELETE FROM bill_lines WHERE bill_id = ?`, bill.ID); err != nil {
		return fmt.Errorf("failed to clear bill lines: %w", err)
	}
	if err := r.insertLines(ctx, tx, bill); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *BillRepository) insertLines(ctx context.Context, tx *sql.Tx, bill *entity.Bill) error {
	lineQuery := `
		INSERT INTO bill_lines (
			bill_id, product_id, product_name, unit_price, unit_cost,
			quantity, discount_type, discount_value, discount_amount, total
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	sizeQuery := `
		INSERT INTO line_sizes (line_id, size_id, size_name, quantity)
		VALUES (?, ?, ?, ?)
	`

	for i := range bill.Lines {
		line := &bill.Lines[i]
		result, err := tx.ExecContext(ctx, lineQuery,
			bill.ID,
			line.ProductID,
			line.ProductName,
			line.UnitPrice.Round(2),
			line.UnitCost.Round(2),
			line.Quantity,
			line.Discount.Type,
			line.Discount.Value,
			line.DiscountAmount.Round(2),
			line.Total.Round(2),
		)
		if err != nil {
			r.logger.Error("Failed to create bill line", zap.Int64("bill_id", bill.ID), zap.Error(err))
			return fmt.Errorf("failed to create bill line: %w", err)
		}

		lineID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		line.ID = lineID

		for j := range line.Sizes {
			alloc := &line.Sizes[j]
			result, err := tx.ExecContext(ctx, sizeQuery,
				lineID,
				alloc.SizeID,
				alloc.SizeName,
				alloc.Quantity,
			)
			if err != nil {
				return fmt.Errorf("failed to create size allocation: %w", err)
			}
			allocID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get last insert id: %w", err)
			}
			alloc.ID = allocID
		}
	}
	return nil
}

// GetByID retrieves a bill with its lines, allocations and payments
func (r *BillRepository) GetByID(ctx context.Context, id int64) (*entity.Bill, error) {
	query := `
		SELECT id, kind, counterparty_id, counterparty_role, bill_date,
			subtotal, total_discount, grand_total,
			shipping, packaging, misc, status, created_at, updated_at
		FROM bills
		WHERE id = ?
	`

	var bill entity.Bill
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&bill.ID,
		&bill.Kind,
		&bill.CounterpartyID,
		&bill.CounterpartyRole,
		&bill.BillDate,
		&bill.Subtotal,
		&bill.TotalDiscount,
		&bill.GrandTotal,
		&bill.Expenses.Shipping,
		&bill.Expenses.Packaging,
		&bill.Expenses.Misc,
		&bill.Status,
		&bill.CreatedAt,
		&bill.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bill %d: %w", id, ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get bill by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	if err := r.loadLines(ctx, &bill); err != nil {
		return nil, err
	}
	if err := r.loadPayments(ctx, &bill); err != nil {
		return nil, err
	}

	return &bill, nil
}

func (r *BillRepository) loadLines(ctx context.Context, bill *entity.Bill) error {
	query := `
		SELECT id, product_id, product_name, unit_price, unit_cost,
			quantity, discount_type, discount_value, discount_amount, total
		FROM bill_lines
		WHERE bill_id = ?
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, bill.ID)
	if err != nil {
		return fmt.Errorf("failed to load bill lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line entity.LineItem
		if err := rows.Scan(
			&line.ID,
			&line.ProductID,
			&line.ProductName,
			&line.UnitPrice,
			&line.UnitCost,
			&line.Quantity,
			&line.Discount.Type,
			&line.Discount.Value,
			&line.DiscountAmount,
			&line.Total,
		); err != nil {
			return fmt.Errorf("failed to scan bill line: %w", err)
		}
		bill.Lines = append(bill.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range bill.Lines {
		if err := r.loadAllocations(ctx, &bill.Lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *BillRepository) loadAllocations(ctx context.Context, line *entity.LineItem) error {
	query := `
		SELECT id, size_id, size_name, quantity
		FROM line_sizes
		WHERE line_id = ?
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, line.ID)
	if err != nil {
		return fmt.Errorf("failed to load size allocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var alloc entity.SizeAllocation
		if err := rows.Scan(&alloc.ID, &alloc.SizeID, &alloc.SizeName, &alloc.Quantity); err != nil {
			return fmt.Errorf("failed to scan size allocation: %w", err)
		}
		line.Sizes = append(line.Sizes, alloc)
	}
	return rows.Err()
}

func (r *BillRepository) loadPayments(ctx context.Context, bill *entity.Bill) error {
	query := `
		SELECT id, bill_id, amount, mode, reference, paid_at, created_at
		FROM payments
		WHERE bill_id = ?
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, bill.ID)
	if err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.BillID, &p.Amount, &p.Mode, &p.Reference, &p.PaidAt, &p.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan payment: %w", err)
		}
		bill.Payments = append(bill.Payments, p)
	}
	return rows.Err()
}

// UpdateStatus updates the status of a bill
func (r *BillRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bills SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bill %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateExpenses replaces the shared overhead amounts on a bill
func (r *BillRepository) UpdateExpenses(ctx context.Context, id int64, expenses entity.Expenses) error {
	query := `UPDATE bills SET shipping = ?, packaging = ?, misc = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		expenses.Shipping.Round(2),
		expenses.Packaging.Round(2),
		expenses.Misc.Round(2),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		r.logger.Error("Failed to update expenses", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update expenses: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bill %d: %w", id, ErrNotFound)
	}
	return nil
}

// List retrieves bill summaries of one kind with pagination, newest
// first. Lines and payments are not loaded here.
func (r *BillRepository) List(ctx context.Context, kind entity.BillKind, limit, offset int) ([]*entity.Bill, error) {
	query := `
		SELECT id, kind, counterparty_id, counterparty_role, bill_date,
			subtotal, total_discount, grand_total,
			shipping, packaging, misc, status, created_at, updated_at
		FROM bills
		WHERE kind = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, kind, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list bills", zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*entity.Bill
	for rows.Next() {
		var bill entity.Bill
		if err := rows.Scan(
			&bill.ID,
			&bill.Kind,
			&bill.CounterpartyID,
			&bill.CounterpartyRole,
			&bill.BillDate,
			&bill.Subtotal,
			&bill.TotalDiscount,
			&bill.GrandTotal,
			&bill.Expenses.Shipping,
			&bill.Expenses.Packaging,
			&bill.Expenses.Misc,
			&bill.Status,
			&bill.CreatedAt,
			&bill.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, &bill)
	}
	return bills, rows.Err()
}
