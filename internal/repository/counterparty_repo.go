package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/resellkart/billing/internal/domain/entity"
)

// CounterpartyRepository handles counterparty database operations
type CounterpartyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCounterpartyRepository creates a new counterparty repository
func NewCounterpartyRepository(db *sql.DB, logger *zap.Logger) *CounterpartyRepository {
	return &CounterpartyRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a counterparty by ID
func (r *CounterpartyRepository) GetByID(ctx context.Context, id int64) (*entity.Counterparty, error) {
	query := `
		SELECT id, name, role, phone, city, created_at
		FROM counterparties
		WHERE id = ?
	`

	var cp entity.Counterparty
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cp.ID,
		&cp.Name,
		&cp.Role,
		&cp.Phone,
		&cp.City,
		&cp.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("counterparty %d: %w", id, ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get counterparty by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get counterparty: %w", err)
	}

	return &cp, nil
}

// List retrieves counterparties, optionally filtered by role
func (r *CounterpartyRepository) List(ctx context.Context, role entity.Role, limit, offset int) ([]*entity.Counterparty, error) {
	query := `
		SELECT id, name, role, phone, city, created_at
		FROM counterparties
		WHERE (? = '' OR role = ?)
		ORDER BY name
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, role, role, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list counterparties", zap.String("role", string(role)), zap.Error(err))
		return nil, fmt.Errorf("failed to list counterparties: %w", err)
	}
	defer rows.Close()

	var counterparties []*entity.Counterparty
	for rows.Next() {
		var cp entity.Counterparty
		if err := rows.Scan(&cp.ID, &cp.Name, &cp.Role, &cp.Phone, &cp.City, &cp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan counterparty: %w", err)
		}
		counterparties = append(counterparties, &cp)
	}
	return counterparties, rows.Err()
}
