// Package review implements product reviews and keeps each product's rating
// aggregate in sync with its review rows.
package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a review id does not resolve.
	ErrNotFound = errors.New("review not found")
	// ErrDuplicate is returned when a user already reviewed the product.
	ErrDuplicate = errors.New("product already reviewed by this user")
	// ErrNotOwner is returned when a caller touches someone else's review.
	ErrNotOwner = errors.New("review belongs to another user")
)

// InvalidRatingError reports a rating outside the accepted range.
type InvalidRatingError struct {
	Rating int
}

func (e *InvalidRatingError) Error() string {
	return "rating must be between 1 and 5"
}

// Review is one user's rating and comment on a product. A user reviews a
// product at most once.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	ProductID string    `json:"product"`
	Rating    int       `json:"rating"`
	Text      string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats is the rating aggregate over all reviews of one product.
type Stats struct {
	Average decimal.Decimal
	Count   int
}

// Repository defines persistence for reviews. Stats computes the aggregate
// in the store so it stays consistent with concurrent writes.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, productID string) (Stats, error)
}

// RatingUpdater writes the recomputed aggregate back onto the product.
type RatingUpdater interface {
	SetRating(ctx context.Context, productID string, average decimal.Decimal, count int) error
}
