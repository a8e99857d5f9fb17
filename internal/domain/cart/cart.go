// Package cart implements the shopping cart and its pricing calculator.
//
// The cart keeps two running totals: Total, the sum of line prices, and
// TotalAfterDiscount, which a coupon application derives from Total. Every
// mutation recomputes both; a previously applied discount does not survive a
// mutation and must be re-applied.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when the user has no cart.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when a line item id does not resolve.
	ErrItemNotFound = errors.New("cart item not found")
)

// Item is one product/color/quantity/price line in a cart. Price is the unit
// price captured when the product was added; client input never sets it.
type Item struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product"`
	Quantity  int             `json:"quantity"`
	Color     string          `json:"color"`
	Price     decimal.Decimal `json:"price"`
}

// Cart is an ordered sequence of line items with running totals, owned by a
// single user.
type Cart struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user"`
	Items              []Item          `json:"cartItems"`
	Total              decimal.Decimal `json:"totalCost"`
	TotalAfterDiscount decimal.Decimal `json:"totalCostAfterDiscount"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// New creates a cart for the user holding a single line item at quantity 1.
// The first add always starts at one unit regardless of the requested
// quantity; clients bump the line afterwards if they want more.
func New(userID, productID, color string, price decimal.Decimal) *Cart {
	c := &Cart{
		ID:     uuid.New().String(),
		UserID: userID,
		Items: []Item{{
			ID:        uuid.New().String(),
			ProductID: productID,
			Quantity:  1,
			Color:     color,
			Price:     price,
		}},
	}
	c.Recalculate()
	return c
}

// AddItem merges a product into the cart. When a line with the same product
// and color already exists its quantity is incremented by exactly one and the
// requested quantity is ignored on that branch. Otherwise a new line is
// appended with the requested quantity, clamped to at least one. Totals are
// recomputed.
func (c *Cart) AddItem(productID, color string, quantity int, price decimal.Decimal) {
	defer c.Recalculate()

	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Color == color {
			c.Items[i].Quantity++
			return
		}
	}

	if quantity < 1 {
		quantity = 1
	}
	c.Items = append(c.Items, Item{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  quantity,
		Color:     color,
		Price:     price,
	})
}

// UpdateQuantity replaces the quantity of the identified line item. Returns
// ErrItemNotFound when the id does not resolve. Totals are recomputed.
func (c *Cart) UpdateQuantity(itemID string, quantity int) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			c.Recalculate()
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItem deletes the identified line item if present and recomputes
// totals. Removing an unknown id is a no-op.
func (c *Cart) RemoveItem(itemID string) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			break
		}
	}
	c.Recalculate()
}

// Recalculate restores the subtotal invariant: Total is the sum of
// price x quantity over all lines, and TotalAfterDiscount is reset to Total
// (an applied coupon is only valid until the next mutation).
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	c.Total = total
	c.TotalAfterDiscount = total
}

// ApplyDiscount sets TotalAfterDiscount to the subtotal reduced by the given
// percentage, floored at zero and rounded to 2 decimal places.
func (c *Cart) ApplyDiscount(percent decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	after := c.Total.Sub(c.Total.Mul(percent).Div(hundred))
	if after.IsNegative() {
		after = decimal.Zero
	}
	c.TotalAfterDiscount = after.Round(2)
}

// Repository defines persistence for carts. Each user owns at most one cart.
type Repository interface {
	FindByUser(ctx context.Context, userID string) (*Cart, error)
	FindByID(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}
