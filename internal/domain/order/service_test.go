package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/storefront/internal/domain/cart"
	"github.com/sellora/storefront/internal/domain/catalog"
	"github.com/sellora/storefront/internal/domain/user"
	"github.com/sellora/storefront/internal/payment"
)

type mockCarts struct {
	cart *cart.Cart
}

func (m *mockCarts) FindByUser(context.Context, string) (*cart.Cart, error) {
	if m.cart == nil {
		return nil, cart.ErrNotFound
	}
	return m.cart, nil
}

func (m *mockCarts) FindByID(_ context.Context, id string) (*cart.Cart, error) {
	if m.cart == nil || m.cart.ID != id {
		return nil, cart.ErrNotFound
	}
	return m.cart, nil
}

func (m *mockCarts) Save(context.Context, *cart.Cart) error     { return nil }
func (m *mockCarts) Delete(context.Context, string) error       { return nil }
func (m *mockCarts) DeleteByUser(context.Context, string) error { return nil }

type mockOrders struct {
	placed      *Order
	adjustments []catalog.StockAdjustment
	deletedCart string
	updated     *Order
	byID        map[string]*Order
	listed      []*Order
	listOwner   string
}

func (m *mockOrders) Place(_ context.Context, o *Order, adj []catalog.StockAdjustment, cartID string) error {
	m.placed = o
	m.adjustments = adj
	m.deletedCart = cartID
	return nil
}

func (m *mockOrders) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrders) List(_ context.Context, userID string, _, _ int) ([]*Order, int64, error) {
	m.listOwner = userID
	var out []*Order
	for _, o := range m.listed {
		if userID == "" || o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockOrders) Update(_ context.Context, o *Order) error {
	m.updated = o
	return nil
}

type mockGateway struct {
	req     payment.SessionRequest
	session *payment.Session
}

func (m *mockGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	m.req = req
	if m.session == nil {
		m.session = &payment.Session{ID: "cs_test"}
	}
	return m.session, nil
}

func testFees() Fees {
	return Fees{
		Tax:      decimal.RequireFromString("0.05"),
		Shipping: decimal.NewFromInt(10),
	}
}

func twoUnitCart() *cart.Cart {
	c := cart.New("u1", "px", "black", decimal.NewFromInt(25))
	_ = c.UpdateQuantity(c.Items[0].ID, 2)
	return c
}

func TestPlaceCashOrder(t *testing.T) {
	c := twoUnitCart()
	orders := &mockOrders{}
	svc := NewService(&mockCarts{cart: c}, orders, &mockGateway{}, testFees())

	o, err := svc.PlaceCashOrder(context.Background(), user.Identity{UserID: "u1", Role: user.RoleUser}, c.ID, user.Address{City: "Cairo"})
	require.NoError(t, err)

	// Snapshot copies the items and derives the total from the discounted
	// cart total plus flat fees: 50 + 0.05 + 10.
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("60.05").Equal(o.Total), "got %s", o.Total)
	assert.Equal(t, PaymentCash, o.PaymentMethod)
	assert.Equal(t, "u1", o.UserID)

	// Stock moves as one bulk adjustment and the cart is deleted in the
	// same transaction.
	require.Len(t, orders.adjustments, 1)
	assert.Equal(t, catalog.StockAdjustment{ProductID: "px", Quantity: 2}, orders.adjustments[0])
	assert.Equal(t, c.ID, orders.deletedCart)
}

func TestPlaceCashOrder_CartMissing(t *testing.T) {
	svc := NewService(&mockCarts{}, &mockOrders{}, &mockGateway{}, testFees())

	_, err := svc.PlaceCashOrder(context.Background(), user.Identity{UserID: "u1"}, "nope", user.Address{})
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestPlaceCashOrder_EmptyCart(t *testing.T) {
	c := cart.New("u1", "px", "black", decimal.NewFromInt(25))
	c.RemoveItem(c.Items[0].ID)
	svc := NewService(&mockCarts{cart: c}, &mockOrders{}, &mockGateway{}, testFees())

	_, err := svc.PlaceCashOrder(context.Background(), user.Identity{UserID: "u1"}, c.ID, user.Address{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceCashOrder_ForeignCartReadsAsMissing(t *testing.T) {
	c := twoUnitCart() // belongs to u1
	orders := &mockOrders{}
	svc := NewService(&mockCarts{cart: c}, orders, &mockGateway{}, testFees())

	_, err := svc.PlaceCashOrder(context.Background(), user.Identity{UserID: "u2", Role: user.RoleUser}, c.ID, user.Address{})
	assert.ErrorIs(t, err, cart.ErrNotFound)
	assert.Nil(t, orders.placed, "someone else's cart must never be consumed")
}

func TestCheckoutSession_ForeignCartReadsAsMissing(t *testing.T) {
	c := twoUnitCart()
	svc := NewService(&mockCarts{cart: c}, &mockOrders{}, &mockGateway{}, testFees())

	_, err := svc.CheckoutSession(context.Background(), user.Identity{UserID: "u2", Role: user.RoleUser}, c.ID, "u2@example.com", "https://shop/ok", "https://shop/no")
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestListOrders_ScopedToOwner(t *testing.T) {
	orders := &mockOrders{listed: []*Order{
		{ID: "o1", UserID: "u1"},
		{ID: "o2", UserID: "u2"},
	}}
	svc := NewService(&mockCarts{}, orders, &mockGateway{}, testFees())

	own, total, err := svc.ListOrders(context.Background(), user.Identity{UserID: "u1", Role: user.RoleUser}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "u1", orders.listOwner, "owner filter goes into the query")
	assert.Equal(t, int64(1), total)
	require.Len(t, own, 1)
	assert.Equal(t, "o1", own[0].ID)

	all, total, err := svc.ListOrders(context.Background(), user.Identity{UserID: "a1", Role: user.RoleAdmin}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, orders.listOwner, "elevated callers list every account")
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}

func TestCheckoutSession_AmountInMinorUnits(t *testing.T) {
	c := twoUnitCart()
	c.ApplyDiscount(decimal.NewFromInt(20)) // 50 -> 40
	gw := &mockGateway{}
	svc := NewService(&mockCarts{cart: c}, &mockOrders{}, gw, testFees())

	session, err := svc.CheckoutSession(context.Background(), user.Identity{UserID: "u1"}, c.ID, "u1@example.com", "https://shop/orders", "https://shop/cart")
	require.NoError(t, err)
	require.NotNil(t, session)

	// 40 + 0.05 + 10 = 50.05 -> 5005 minor units.
	assert.Equal(t, int64(5005), gw.req.AmountMinor)
	assert.Equal(t, c.ID, gw.req.Reference)
	assert.Equal(t, "u1@example.com", gw.req.Email)
}

func TestMarkPaid_IsOneWay(t *testing.T) {
	paidAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	existing := &Order{ID: "o1", IsPaid: true, PaidAt: &paidAt}
	orders := &mockOrders{byID: map[string]*Order{"o1": existing}}
	svc := NewService(&mockCarts{}, orders, &mockGateway{}, testFees())

	o, err := svc.MarkPaid(context.Background(), "o1")
	require.NoError(t, err)
	assert.True(t, o.IsPaid)
	assert.Equal(t, &paidAt, o.PaidAt, "existing paid timestamp must not change")
	assert.Nil(t, orders.updated, "no write for an already paid order")
}

func TestMarkDelivered(t *testing.T) {
	orders := &mockOrders{byID: map[string]*Order{"o1": {ID: "o1"}}}
	svc := NewService(&mockCarts{}, orders, &mockGateway{}, testFees())
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	o, err := svc.MarkDelivered(context.Background(), "o1")
	require.NoError(t, err)
	assert.True(t, o.IsDelivered)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, fixed, *o.DeliveredAt)
	assert.Same(t, o, orders.updated)
}

func TestGetOrder_OwnershipRule(t *testing.T) {
	orders := &mockOrders{byID: map[string]*Order{"o1": {ID: "o1", UserID: "u1"}}}
	svc := NewService(&mockCarts{}, orders, &mockGateway{}, testFees())

	_, err := svc.GetOrder(context.Background(), user.Identity{UserID: "u1", Role: user.RoleUser}, "o1")
	assert.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), user.Identity{UserID: "u2", Role: user.RoleUser}, "o1")
	assert.ErrorIs(t, err, ErrNotFound, "someone else's order must read as missing")

	_, err = svc.GetOrder(context.Background(), user.Identity{UserID: "u2", Role: user.RoleAdmin}, "o1")
	assert.NoError(t, err)
}

func TestMarkPaid_UnknownOrder(t *testing.T) {
	svc := NewService(&mockCarts{}, &mockOrders{byID: map[string]*Order{}}, &mockGateway{}, testFees())

	_, err := svc.MarkPaid(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
