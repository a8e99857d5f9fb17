package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/sellora/storefront/internal/domain/user"
)

// Service applies ownership rules to review mutations and resyncs the
// product rating aggregate after each one.
type Service struct {
	reviews Repository
	rating  RatingUpdater
	now     func() time.Time
}

// NewService creates a review Service.
func NewService(reviews Repository, rating RatingUpdater) *Service {
	return &Service{
		reviews: reviews,
		rating:  rating,
		now:     time.Now,
	}
}

// Create stores a new review authored by the caller and resyncs the product
// aggregate. The repository enforces one review per user per product and
// reports ErrDuplicate.
func (s *Service) Create(ctx context.Context, ident user.Identity, productID string, rating int, text string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, &InvalidRatingError{Rating: rating}
	}

	r := &Review{
		ID:        uuid.New().String(),
		UserID:    ident.UserID,
		ProductID: productID,
		Rating:    rating,
		Text:      text,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, err
	}
	if err := s.sync(ctx, productID); err != nil {
		return nil, err
	}
	return r, nil
}

// Update replaces the rating and text of the caller's own review. Elevated
// roles may edit any review.
func (s *Service) Update(ctx context.Context, ident user.Identity, reviewID string, rating int, text string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, &InvalidRatingError{Rating: rating}
	}

	r, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if r.UserID != ident.UserID && !ident.Elevated() {
		return nil, ErrNotOwner
	}

	r.Rating = rating
	r.Text = text
	r.UpdatedAt = s.now()
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	if err := s.sync(ctx, r.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes the caller's own review (or any review for elevated roles)
// and resyncs the product aggregate.
func (s *Service) Delete(ctx context.Context, ident user.Identity, reviewID string) error {
	r, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if r.UserID != ident.UserID && !ident.Elevated() {
		return ErrNotOwner
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}
	return s.sync(ctx, r.ProductID)
}

func (s *Service) sync(ctx context.Context, productID string) error {
	stats, err := s.reviews.Stats(ctx, productID)
	if err != nil {
		return errors.Wrap(err, "review stats")
	}
	if err := s.rating.SetRating(ctx, productID, stats.Average, stats.Count); err != nil {
		return errors.Wrap(err, "set product rating")
	}
	return nil
}
