// Package coupon holds the coupon domain type and the expiry validation used
// when a discount is applied to a cart.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrExpiredOrInvalid is returned when a coupon name does not resolve or the
// coupon's expiry has passed. Both cases are deliberately indistinguishable
// to the caller.
var ErrExpiredOrInvalid = errors.New("coupon is expired or invalid")

// Coupon is a percentage discount with a unique name and an expiry time.
type Coupon struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Expire   time.Time       `json:"expire"`
	Discount decimal.Decimal `json:"discount"`
}

// Repository provides lookup of coupons by their unique name.
type Repository interface {
	FindByName(ctx context.Context, name string) (*Coupon, error)
}

// Validator resolves a coupon name to its discount percentage, rejecting
// missing and expired coupons.
type Validator interface {
	Validate(ctx context.Context, name string) (decimal.Decimal, error)
}

// RepoValidator implements Validator against a Repository. The clock is
// injectable for tests.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the coupon and checks its expiry. A coupon whose expiry
// is at or before now is rejected with ErrExpiredOrInvalid.
func (v *RepoValidator) Validate(ctx context.Context, name string) (decimal.Decimal, error) {
	c, err := v.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrExpiredOrInvalid) {
			return decimal.Zero, ErrExpiredOrInvalid
		}
		return decimal.Zero, errors.Wrap(err, "lookup coupon")
	}
	if !c.Expire.After(v.now()) {
		return decimal.Zero, ErrExpiredOrInvalid
	}
	return c.Discount, nil
}
