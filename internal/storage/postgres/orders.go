package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellora/storefront/internal/domain/catalog"
	"github.com/sellora/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, doc, created_at)
		VALUES ($1, $2, $3, $4)`

	getOrderByIDSQL = `SELECT doc FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT doc FROM orders
		WHERE ($1 = '' OR user_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	countOrdersSQL = `SELECT count(*) FROM orders WHERE ($1 = '' OR user_id = $1)`

	updateOrderSQL = `UPDATE orders SET doc = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderStore)(nil)

// OrderStore implements order.Repository backed by PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Place inserts the order, applies the bulk stock adjustment, and deletes
// the source cart inside one transaction. A failure in any step rolls back
// all of them.
func (s *OrderStore) Place(ctx context.Context, o *order.Order, adjustments []catalog.StockAdjustment, cartID string) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "encoding order doc")
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createOrderSQL, o.ID, o.UserID, doc, o.CreatedAt); err != nil {
			return errors.Wrapf(err, "creating order %q", o.ID)
		}
		if err := adjustStock(ctx, tx, adjustments); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, deleteCartSQL, cartID); err != nil {
			return errors.Wrapf(err, "deleting cart %q", cartID)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "placing order")
	}
	return nil
}

// GetByID returns an order by id.
func (s *OrderStore) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var docRaw []byte
	if err := s.pool.QueryRow(ctx, getOrderByIDSQL, id).Scan(&docRaw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting order %q", id)
	}

	var o order.Order
	if err := json.Unmarshal(docRaw, &o); err != nil {
		return nil, errors.Wrap(err, "decoding order doc")
	}
	return &o, nil
}

// List returns one page of orders, newest first. An empty userID lists every
// account's orders; the count query shares the owner filter.
func (s *OrderStore) List(ctx context.Context, userID string, limit, offset int) ([]*order.Order, int64, error) {
	rows, err := s.pool.Query(ctx, listOrdersSQL, userID, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing orders")
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*order.Order, error) {
		var docRaw []byte
		if err := row.Scan(&docRaw); err != nil {
			return nil, err
		}
		var o order.Order
		if err := json.Unmarshal(docRaw, &o); err != nil {
			return nil, errors.Wrap(err, "decoding order doc")
		}
		return &o, nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing orders")
	}

	var total int64
	if err := s.pool.QueryRow(ctx, countOrdersSQL, userID).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "counting orders")
	}
	return orders, total, nil
}

// Update rewrites the order document, used for the paid/delivered flags.
func (s *OrderStore) Update(ctx context.Context, o *order.Order) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "encoding order doc")
	}
	tag, err := s.pool.Exec(ctx, updateOrderSQL, o.ID, doc)
	if err != nil {
		return errors.Wrapf(err, "updating order %q", o.ID)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}
