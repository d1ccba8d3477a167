package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/resellkart/billing/internal/domain/entity"
)

// CatalogRepository serves the catalog slice the billing core reads
// when seeding lines: the product, its price tiers, and the size sets
type CatalogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *sql.DB, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger,
	}
}

// GetProduct retrieves a product with its own sizes and its category's
// configured sizes. The category set is the fallback when the product
// declares no sizes of its own.
func (r *CatalogRepository) GetProduct(ctx context.Context, id int64) (*entity.CatalogProduct, error) {
	query := `
		SELECT id, name, category_id, wholesale_price, reseller_price,
			retail_price, purchase_cost
		FROM products
		WHERE id = ?
	`

	var product entity.CatalogProduct
	var categoryID sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&categoryID,
		&product.WholesalePrice,
		&product.ResellerPrice,
		&product.RetailPrice,
		&product.PurchaseCost,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get product by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	product.Sizes, err = r.loadSizes(ctx, `
		SELECT s.id, s.name
		FROM sizes s
		JOIN product_sizes ps ON ps.size_id = s.id
		WHERE ps.product_id = ?
		ORDER BY s.id
	`, id)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		product.CategorySizes, err = r.loadSizes(ctx, `
			SELECT s.id, s.name
			FROM sizes s
			JOIN category_sizes cs ON cs.size_id = s.id
			WHERE cs.category_id = ?
			ORDER BY s.id
		`, categoryID.Int64)
		if err != nil {
			return nil, err
		}
	}

	return &product, nil
}

func (r *CatalogRepository) loadSizes(ctx context.Context, query string, id int64) ([]entity.Size, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load sizes: %w", err)
	}
	defer rows.Close()

	var sizes []entity.Size
	for rows.Next() {
		var size entity.Size
		if err := rows.Scan(&size.ID, &size.Name); err != nil {
			return nil, fmt.Errorf("failed to scan size: %w", err)
		}
		sizes = append(sizes, size)
	}
	return sizes, rows.Err()
}
