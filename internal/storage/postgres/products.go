package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sellora/storefront/internal/domain/catalog"
)

const getProductByIDSQL = `SELECT id, slug, doc FROM products WHERE id = $1`

// adjustStockSQL moves quantity from stock to the sold counter for every
// product in one statement. Adjustments arrive as parallel arrays.
const adjustStockSQL = `UPDATE products AS p
	SET doc = jsonb_set(
		jsonb_set(p.doc, '{quantity}', to_jsonb(COALESCE((p.doc->>'quantity')::int, 0) - a.qty)),
		'{sold}', to_jsonb(COALESCE((p.doc->>'sold')::int, 0) + a.qty)),
	    updated_at = now()
	FROM (SELECT unnest($1::text[]) AS id, unnest($2::int[]) AS qty) AS a
	WHERE p.id = a.id`

const setRatingSQL = `UPDATE products
	SET doc = jsonb_set(
		jsonb_set(doc, '{averageRating}', to_jsonb($2::numeric)),
		'{ratingQuantity}', to_jsonb($3::int)),
	    updated_at = now()
	WHERE id = $1`

var _ catalog.ProductRepository = (*ProductStore)(nil)

// ProductStore provides the typed product operations on top of the products
// collection table.
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore returns a ProductStore that uses the given pool.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// GetByID returns the typed projection of one product document.
func (s *ProductStore) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := s.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "getting product %q", id)
	}
	return &p, nil
}

// AdjustStock applies all adjustments in a single bulk statement.
func (s *ProductStore) AdjustStock(ctx context.Context, adjustments []catalog.StockAdjustment) error {
	return adjustStock(ctx, s.pool, adjustments)
}

// SetRating writes the recomputed review aggregate onto the product.
func (s *ProductStore) SetRating(ctx context.Context, productID string, average decimal.Decimal, count int) error {
	tag, err := s.pool.Exec(ctx, setRatingSQL, productID, average, count)
	if err != nil {
		return errors.Wrapf(err, "setting rating on product %q", productID)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// execer is the slice of pgx shared by a pool and a transaction, so the bulk
// stock statement can run standalone or inside an order placement.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func adjustStock(ctx context.Context, db execer, adjustments []catalog.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}
	ids := make([]string, len(adjustments))
	qtys := make([]int32, len(adjustments))
	for i, a := range adjustments {
		ids[i] = a.ProductID
		qtys[i] = int32(a.Quantity)
	}
	if _, err := db.Exec(ctx, adjustStockSQL, ids, qtys); err != nil {
		return errors.Wrap(err, "adjusting stock")
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p      catalog.Product
		docRaw []byte
	)
	if err := row.Scan(&p.ID, &p.Slug, &docRaw); err != nil {
		return p, err
	}
	if err := json.Unmarshal(docRaw, &p); err != nil {
		return p, errors.Wrap(err, "decoding product doc")
	}
	return p, nil
}
