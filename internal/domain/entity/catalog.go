package entity

import (
	"github.com/shopspring/decimal"
)

// Size is a catalog size variant (S/M/L/XL, shoe sizes, ...)
type Size struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PriceTiered exposes role-dependent selling prices. Catalog products
// implement it; anything that prices a line for a buyer role depends on
// this rather than on the concrete product type.
type PriceTiered interface {
	UnitPriceFor(role Role) decimal.Decimal
}

// CatalogProduct is the slice of the product catalog the billing core
// needs to seed a new line. It is fetched once when a line is created
// and never re-queried afterwards.
type CatalogProduct struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// Selling price per buyer role
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	ResellerPrice  decimal.Decimal `json:"reseller_price"`
	RetailPrice    decimal.Decimal `json:"retail_price"`

	// Cost price when buying from a vendor
	PurchaseCost decimal.Decimal `json:"purchase_cost"`

	// Sizes the product itself declares; CategorySizes is the owning
	// category's configured set, used as a fallback when Sizes is empty.
	Sizes         []Size `json:"sizes,omitempty"`
	CategorySizes []Size `json:"category_sizes,omitempty"`
}

// UnitPriceFor returns the selling price for the given buyer role.
// Vendors are not buyers; asking for the vendor price returns the
// purchase cost.
func (p *CatalogProduct) UnitPriceFor(role Role) decimal.Decimal {
	switch role {
	case RoleWholesaler:
		return p.WholesalePrice
	case RoleReseller:
		return p.ResellerPrice
	case RoleRetailer:
		return p.RetailPrice
	case RoleVendor:
		return p.PurchaseCost
	}
	return decimal.Zero
}

// OfferedSizes returns the product's own sizes, falling back to the
// category's configured sizes when the product declares none.
func (p *CatalogProduct) OfferedSizes() []Size {
	if len(p.Sizes) > 0 {
		return p.Sizes
	}
	return p.CategorySizes
}
