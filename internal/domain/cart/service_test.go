package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/storefront/internal/domain/coupon"
)

type mockCartRepo struct {
	byUser  map[string]*Cart
	saved   *Cart
	deleted string
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{byUser: make(map[string]*Cart)}
}

func (m *mockCartRepo) FindByUser(_ context.Context, userID string) (*Cart, error) {
	c, ok := m.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCartRepo) FindByID(_ context.Context, id string) (*Cart, error) {
	for _, c := range m.byUser {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockCartRepo) Save(_ context.Context, c *Cart) error {
	m.saved = c
	m.byUser[c.UserID] = c
	return nil
}

func (m *mockCartRepo) Delete(_ context.Context, id string) error {
	m.deleted = id
	return nil
}

func (m *mockCartRepo) DeleteByUser(_ context.Context, userID string) error {
	delete(m.byUser, userID)
	return nil
}

type mockPrices struct {
	prices map[string]decimal.Decimal
	err    error
}

func (m *mockPrices) UnitPrice(_ context.Context, productID string) (decimal.Decimal, error) {
	if m.err != nil {
		return decimal.Zero, m.err
	}
	return m.prices[productID], nil
}

type mockCouponValidator struct {
	discount decimal.Decimal
	err      error
}

func (m *mockCouponValidator) Validate(context.Context, string) (decimal.Decimal, error) {
	return m.discount, m.err
}

func TestService_AddProduct_CreatesCartOnFirstAdd(t *testing.T) {
	repo := newMockCartRepo()
	svc := NewService(repo, &mockPrices{prices: map[string]decimal.Decimal{
		"p1": decimal.NewFromInt(30),
	}}, &mockCouponValidator{})

	c, err := svc.AddProduct(context.Background(), "u1", "p1", "red", 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity, "creation path starts at quantity 1")
	assert.True(t, decimal.NewFromInt(30).Equal(c.Items[0].Price), "price captured from catalog")
	assert.Same(t, c, repo.saved)
}

func TestService_AddProduct_CapturesCatalogPriceNotClientPrice(t *testing.T) {
	repo := newMockCartRepo()
	svc := NewService(repo, &mockPrices{prices: map[string]decimal.Decimal{
		"p1": decimal.RequireFromString("19.99"),
	}}, &mockCouponValidator{})

	_, err := svc.AddProduct(context.Background(), "u1", "p1", "red", 1)
	require.NoError(t, err)
	_, err = svc.AddProduct(context.Background(), "u1", "p1", "red", 1)
	require.NoError(t, err)

	c := repo.byUser["u1"]
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("39.98").Equal(c.Total))
}

func TestService_ApplyCoupon(t *testing.T) {
	repo := newMockCartRepo()
	c := New("u1", "p1", "red", decimal.NewFromInt(100))
	repo.byUser["u1"] = c

	svc := NewService(repo, &mockPrices{}, &mockCouponValidator{discount: decimal.NewFromInt(20)})

	got, err := svc.ApplyCoupon(context.Background(), "u1", "SUMMER20")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(80).Equal(got.TotalAfterDiscount))
}

func TestService_ApplyCoupon_ExpiredLeavesCartUntouched(t *testing.T) {
	repo := newMockCartRepo()
	c := New("u1", "p1", "red", decimal.NewFromInt(100))
	repo.byUser["u1"] = c

	svc := NewService(repo, &mockPrices{}, &mockCouponValidator{err: coupon.ErrExpiredOrInvalid})

	_, err := svc.ApplyCoupon(context.Background(), "u1", "OLD")
	require.ErrorIs(t, err, coupon.ErrExpiredOrInvalid)
	assert.True(t, decimal.NewFromInt(100).Equal(c.TotalAfterDiscount))
	assert.Nil(t, repo.saved, "cart must not be persisted on rejection")
}

func TestService_UpdateItemQuantity_UnknownItem(t *testing.T) {
	repo := newMockCartRepo()
	repo.byUser["u1"] = New("u1", "p1", "red", decimal.NewFromInt(10))

	svc := NewService(repo, &mockPrices{}, &mockCouponValidator{})

	_, err := svc.UpdateItemQuantity(context.Background(), "u1", "missing", 2)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestService_Get_NoCart(t *testing.T) {
	svc := NewService(newMockCartRepo(), &mockPrices{}, &mockCouponValidator{})

	_, err := svc.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}
