package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sellora/storefront/internal/domain/cart"
	"github.com/sellora/storefront/internal/domain/catalog"
	"github.com/sellora/storefront/internal/domain/user"
	"github.com/sellora/storefront/internal/payment"
)

// Fees are the flat amounts added on top of the discounted cart total at
// placement.
type Fees struct {
	Tax      decimal.Decimal
	Shipping decimal.Decimal
}

// Service encapsulates order placement and fulfilment state changes.
type Service struct {
	carts   cart.Repository
	orders  Repository
	gateway payment.Gateway
	fees    Fees
	now     func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(carts cart.Repository, orders Repository, gateway payment.Gateway, fees Fees) *Service {
	return &Service{
		carts:   carts,
		orders:  orders,
		gateway: gateway,
		fees:    fees,
		now:     time.Now,
	}
}

// PlaceCashOrder snapshots the cart into a cash order, decrements stock (and
// increments sold counters) in one bulk statement, and deletes the cart. The
// three writes run in a single transaction via Repository.Place.
func (s *Service) PlaceCashOrder(ctx context.Context, ident user.Identity, cartID string, addr user.Address) (*Order, error) {
	c, err := s.cartFor(ctx, ident, cartID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	o := s.snapshot(ident, c, addr, PaymentCash)

	adjustments := make([]catalog.StockAdjustment, len(c.Items))
	for i, item := range c.Items {
		adjustments[i] = catalog.StockAdjustment{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	if err := s.orders.Place(ctx, o, adjustments, c.ID); err != nil {
		return nil, errors.Wrap(err, "place order")
	}
	return o, nil
}

// CheckoutSession computes the order total for the cart and asks the payment
// gateway for a checkout session in the smallest currency unit. The cart is
// left in place; fulfilment happens when the gateway confirms payment.
func (s *Service) CheckoutSession(ctx context.Context, ident user.Identity, cartID, payerEmail, successURL, cancelURL string) (*payment.Session, error) {
	c, err := s.cartFor(ctx, ident, cartID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	total := c.TotalAfterDiscount.Add(s.fees.Tax).Add(s.fees.Shipping)
	minor := total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		AmountMinor: minor,
		Email:       payerEmail,
		Reference:   c.ID,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}
	return session, nil
}

// cartFor resolves the cart and checks it belongs to the caller. Someone
// else's cart reads as missing so cart ids cannot be probed, and a stranger
// can never place an order that empties it.
func (s *Service) cartFor(ctx context.Context, ident user.Identity, cartID string) (*cart.Cart, error) {
	c, err := s.carts.FindByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if c.UserID != ident.UserID && !ident.Elevated() {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

// ListOrders returns one page of orders. Non-elevated callers only see their
// own; the owner filter is applied in the list query, not after the fact.
func (s *Service) ListOrders(ctx context.Context, ident user.Identity, limit, offset int) ([]*Order, int64, error) {
	owner := ident.UserID
	if ident.Elevated() {
		owner = ""
	}
	return s.orders.List(ctx, owner, limit, offset)
}

// GetOrder returns one order. Non-elevated callers only resolve their own
// orders; anything else reads as not found rather than forbidden, so order
// ids cannot be probed.
func (s *Service) GetOrder(ctx context.Context, ident user.Identity, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != ident.UserID && !ident.Elevated() {
		return nil, ErrNotFound
	}
	return o, nil
}

// MarkPaid flips the one-way paid flag. Already-paid orders are unchanged.
func (s *Service) MarkPaid(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.IsPaid {
		now := s.now()
		o.IsPaid = true
		o.PaidAt = &now
		if err := s.orders.Update(ctx, o); err != nil {
			return nil, errors.Wrap(err, "update order")
		}
	}
	return o, nil
}

// MarkDelivered flips the one-way delivered flag.
func (s *Service) MarkDelivered(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.IsDelivered {
		now := s.now()
		o.IsDelivered = true
		o.DeliveredAt = &now
		if err := s.orders.Update(ctx, o); err != nil {
			return nil, errors.Wrap(err, "update order")
		}
	}
	return o, nil
}

// snapshot copies the cart into a new order with totals derived from the
// discounted cart total plus the flat fees.
func (s *Service) snapshot(ident user.Identity, c *cart.Cart, addr user.Address, method string) *Order {
	items := make([]cart.Item, len(c.Items))
	copy(items, c.Items)

	return &Order{
		ID:              uuid.New().String(),
		UserID:          ident.UserID,
		Items:           items,
		Tax:             s.fees.Tax,
		Shipping:        s.fees.Shipping,
		ShippingAddress: addr,
		Total:           c.TotalAfterDiscount.Add(s.fees.Tax).Add(s.fees.Shipping).Round(2),
		PaymentMethod:   method,
		CreatedAt:       s.now(),
	}
}
