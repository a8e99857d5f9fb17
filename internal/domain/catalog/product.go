// Package catalog holds the typed product view used by cart and order flows.
// General catalog CRUD (categories, subcategories, brands, products) goes
// through the generic resource layer; this package covers the operations
// that need real product fields: price capture and stock accounting.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a product id does not resolve.
var ErrProductNotFound = errors.New("product not found")

// Product is the typed projection of a product document.
type Product struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	Quantity      int             `json:"quantity"`
	Sold          int             `json:"sold"`
	Price         decimal.Decimal `json:"price"`
	PriceSale     decimal.Decimal `json:"price_sale,omitempty"`
	Colors        []string        `json:"colors,omitempty"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand,omitempty"`
	Subcategories []string        `json:"subcategories,omitempty"`
	AverageRating decimal.Decimal `json:"averageRating,omitempty"`
	RatingCount   int             `json:"ratingQuantity"`
}

// StockAdjustment moves quantity units from stock to the sold counter for
// one product.
type StockAdjustment struct {
	ProductID string
	Quantity  int
}

// ProductRepository provides the typed product operations.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	// AdjustStock applies all adjustments as a single bulk statement:
	// quantity decremented, sold incremented per product.
	AdjustStock(ctx context.Context, adjustments []StockAdjustment) error
}

// PriceSource adapts a ProductRepository to the cart's price lookup.
type PriceSource struct {
	Products ProductRepository
}

// UnitPrice returns the product's current unit price.
func (p PriceSource) UnitPrice(ctx context.Context, productID string) (decimal.Decimal, error) {
	prod, err := p.Products.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return prod.Price, nil
}
