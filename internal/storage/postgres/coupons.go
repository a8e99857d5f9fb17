package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellora/storefront/internal/domain/coupon"
)

// Coupons are a document collection like the catalog tables; admin CRUD goes
// through the generic resource layer. This store adds the typed name lookup
// the cart flow needs.
const getCouponByNameSQL = `SELECT id, doc FROM coupons WHERE doc->>'name' = $1`

var _ coupon.Repository = (*CouponStore)(nil)

// CouponStore implements coupon.Repository backed by PostgreSQL.
type CouponStore struct {
	pool *pgxpool.Pool
}

// NewCouponStore returns a CouponStore that uses the given pool.
func NewCouponStore(pool *pgxpool.Pool) *CouponStore {
	return &CouponStore{pool: pool}
}

// FindByName returns the coupon with the given unique name. A missing name
// reports coupon.ErrExpiredOrInvalid so callers cannot distinguish unknown
// coupons from expired ones.
func (s *CouponStore) FindByName(ctx context.Context, name string) (*coupon.Coupon, error) {
	rows, err := s.pool.Query(ctx, getCouponByNameSQL, name)
	if err != nil {
		return nil, errors.Wrapf(err, "getting coupon %q", name)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrExpiredOrInvalid
		}
		return nil, errors.Wrapf(err, "getting coupon %q", name)
	}
	return c, nil
}

func scanCoupon(row pgx.CollectableRow) (*coupon.Coupon, error) {
	var (
		id     string
		docRaw []byte
	)
	if err := row.Scan(&id, &docRaw); err != nil {
		return nil, err
	}

	var c coupon.Coupon
	if err := json.Unmarshal(docRaw, &c); err != nil {
		return nil, errors.Wrap(err, "decoding coupon doc")
	}
	c.ID = id
	return &c, nil
}
