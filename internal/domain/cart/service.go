package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sellora/storefront/internal/domain/coupon"
)

// PriceSource resolves a product id to its current unit price. It reports
// the catalog's not-found error when the product does not exist.
type PriceSource interface {
	UnitPrice(ctx context.Context, productID string) (decimal.Decimal, error)
}

// Service coordinates cart mutations against the repository, the product
// catalog (for captured unit prices), and the coupon validator.
type Service struct {
	carts    Repository
	products PriceSource
	coupons  coupon.Validator
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, products PriceSource, coupons coupon.Validator) *Service {
	return &Service{carts: carts, products: products, coupons: coupons}
}

// AddProduct adds the product to the user's cart, creating the cart when the
// user has none. The unit price is captured from the catalog at add time.
func (s *Service) AddProduct(ctx context.Context, userID, productID, color string, quantity int) (*Cart, error) {
	price, err := s.products.UnitPrice(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.FindByUser(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		c = New(userID, productID, color, price)
	case err != nil:
		return nil, errors.Wrap(err, "find cart")
	default:
		c.AddItem(productID, color, quantity, price)
	}

	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// Get returns the user's cart or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	return s.carts.FindByUser(ctx, userID)
}

// UpdateItemQuantity replaces a line item's quantity and persists the cart.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// RemoveItem deletes a line item and persists the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.RemoveItem(itemID)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// Clear deletes the user's cart entirely.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.carts.DeleteByUser(ctx, userID)
}

// ApplyCoupon validates the named coupon and applies its percentage discount
// to the user's cart. Missing and expired coupons are rejected without
// touching the cart.
func (s *Service) ApplyCoupon(ctx context.Context, userID, name string) (*Cart, error) {
	discount, err := s.coupons.Validate(ctx, name)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.ApplyDiscount(discount)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}
