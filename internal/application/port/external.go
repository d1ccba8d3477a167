package port

import (
	"context"

	"github.com/resellkart/billing/internal/domain/entity"
)

// Catalog resolves a product reference into the pricing and size data
// needed to seed a new line. The billing core queries it once at line
// creation and never again for an existing line.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*entity.CatalogProduct, error)
}

// BillObserver is notified after a bill has been successfully saved.
// Implementations must not mutate the bill.
type BillObserver interface {
	BillChanged(ctx context.Context, bill *entity.Bill)
}
