package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellora/storefront/internal/domain/review"
)

const (
	reviewColumns = `id, user_id, product_id, rating, body, created_at, updated_at`

	createReviewSQL = `INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	getReviewByIDSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	listReviewsByProductSQL = `SELECT ` + reviewColumns + ` FROM reviews
		WHERE product_id = $1 ORDER BY created_at DESC`

	updateReviewSQL = `UPDATE reviews SET rating = $2, body = $3, updated_at = $4 WHERE id = $1`

	deleteReviewSQL = `DELETE FROM reviews WHERE id = $1`

	// The aggregate is computed where the rows live so concurrent review
	// writes cannot leave the product with a stale average.
	reviewStatsSQL = `SELECT COALESCE(round(avg(rating), 2), 0), count(*)
		FROM reviews WHERE product_id = $1`
)

var _ review.Repository = (*ReviewStore)(nil)

// ReviewStore implements review.Repository backed by PostgreSQL.
type ReviewStore struct {
	pool *pgxpool.Pool
}

// NewReviewStore returns a ReviewStore that uses the given pool.
func NewReviewStore(pool *pgxpool.Pool) *ReviewStore {
	return &ReviewStore{pool: pool}
}

// Create inserts a review. The unique (user, product) constraint maps to
// review.ErrDuplicate.
func (s *ReviewStore) Create(ctx context.Context, r *review.Review) error {
	_, err := s.pool.Exec(ctx, createReviewSQL,
		r.ID, r.UserID, r.ProductID, r.Rating, r.Text, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return review.ErrDuplicate
		}
		return errors.Wrapf(err, "creating review %q", r.ID)
	}
	return nil
}

// GetByID returns a review by id.
func (s *ReviewStore) GetByID(ctx context.Context, id string) (*review.Review, error) {
	rows, err := s.pool.Query(ctx, getReviewByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting review %q", id)
	}

	r, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting review %q", id)
	}
	return r, nil
}

// ListByProduct returns all reviews of one product, newest first.
func (s *ReviewStore) ListByProduct(ctx context.Context, productID string) ([]*review.Review, error) {
	rows, err := s.pool.Query(ctx, listReviewsByProductSQL, productID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing reviews for product %q", productID)
	}
	return pgx.CollectRows(rows, scanReview)
}

// Update rewrites the mutable review fields.
func (s *ReviewStore) Update(ctx context.Context, r *review.Review) error {
	tag, err := s.pool.Exec(ctx, updateReviewSQL, r.ID, r.Rating, r.Text, r.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "updating review %q", r.ID)
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}

// Delete removes a review.
func (s *ReviewStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, deleteReviewSQL, id)
	if err != nil {
		return errors.Wrapf(err, "deleting review %q", id)
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}

// Stats returns the rating aggregate over one product's reviews.
func (s *ReviewStore) Stats(ctx context.Context, productID string) (review.Stats, error) {
	var stats review.Stats
	err := s.pool.QueryRow(ctx, reviewStatsSQL, productID).Scan(&stats.Average, &stats.Count)
	if err != nil {
		return review.Stats{}, errors.Wrapf(err, "review stats for product %q", productID)
	}
	return stats, nil
}

func scanReview(row pgx.CollectableRow) (*review.Review, error) {
	var r review.Review
	err := row.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Rating, &r.Text, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
