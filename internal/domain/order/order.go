// Package order implements order placement, payment/delivery state, and the
// checkout-session flow.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sellora/storefront/internal/domain/cart"
	"github.com/sellora/storefront/internal/domain/catalog"
	"github.com/sellora/storefront/internal/domain/user"
)

var (
	// ErrNotFound is returned when an order id does not resolve.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyCart is returned when placing an order from a cart with no items.
	ErrEmptyCart = errors.New("cart has no items")
)

// Payment methods accepted at placement.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

// Order is a snapshot of a cart at placement time plus pricing and
// fulfilment state. Items are copied; later cart mutations cannot reach
// them. IsPaid and IsDelivered are one-way flags.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user"`
	Items           []cart.Item     `json:"cartItems"`
	Tax             decimal.Decimal `json:"tax"`
	Shipping        decimal.Decimal `json:"shipping"`
	ShippingAddress user.Address    `json:"shippingAddress"`
	Total           decimal.Decimal `json:"totalCost"`
	PaymentMethod   string          `json:"paymentMethod"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Repository defines persistence for orders. Place runs the order insert,
// the bulk stock adjustment, and the cart deletion inside one database
// transaction: a half-placed order must never survive a crash.
// List returns one page of orders, newest first, plus the total count; an
// empty userID lists every account's orders.
type Repository interface {
	Place(ctx context.Context, o *Order, adjustments []catalog.StockAdjustment, cartID string) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*Order, int64, error)
	Update(ctx context.Context, o *Order) error
}
