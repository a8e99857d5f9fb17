package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellora/storefront/internal/domain/cart"
)

const (
	getCartByUserSQL = `SELECT doc FROM carts WHERE user_id = $1`
	getCartByIDSQL   = `SELECT doc FROM carts WHERE id = $1`

	// One cart per user: saving replaces the user's existing cart wholesale.
	saveCartSQL = `INSERT INTO carts (id, user_id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET id = $1, doc = $3, updated_at = now()`

	deleteCartSQL       = `DELETE FROM carts WHERE id = $1`
	deleteCartByUserSQL = `DELETE FROM carts WHERE user_id = $1`
)

var _ cart.Repository = (*CartStore)(nil)

// CartStore implements cart.Repository backed by PostgreSQL. The cart is
// stored as one JSONB document; it is always read and written whole.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// FindByUser returns the user's cart.
func (s *CartStore) FindByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	return s.find(ctx, getCartByUserSQL, userID)
}

// FindByID returns a cart by its id.
func (s *CartStore) FindByID(ctx context.Context, id string) (*cart.Cart, error) {
	return s.find(ctx, getCartByIDSQL, id)
}

func (s *CartStore) find(ctx context.Context, sql, arg string) (*cart.Cart, error) {
	var docRaw []byte
	if err := s.pool.QueryRow(ctx, sql, arg).Scan(&docRaw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrap(err, "getting cart")
	}

	var c cart.Cart
	if err := json.Unmarshal(docRaw, &c); err != nil {
		return nil, errors.Wrap(err, "decoding cart doc")
	}
	return &c, nil
}

// Save upserts the cart on its owner.
func (s *CartStore) Save(ctx context.Context, c *cart.Cart) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding cart doc")
	}
	if _, err := s.pool.Exec(ctx, saveCartSQL, c.ID, c.UserID, doc); err != nil {
		return errors.Wrapf(err, "saving cart %q", c.ID)
	}
	return nil
}

// Delete removes a cart by id. Unknown ids are a no-op.
func (s *CartStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, deleteCartSQL, id); err != nil {
		return errors.Wrapf(err, "deleting cart %q", id)
	}
	return nil
}

// DeleteByUser removes the user's cart. Users without a cart are a no-op.
func (s *CartStore) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, deleteCartByUserSQL, userID); err != nil {
		return errors.Wrapf(err, "deleting cart for user %q", userID)
	}
	return nil
}
