package handler

import (
	"context"
	"net/http"

	"github.com/sellora/storefront/internal/domain/review"
)

// ReviewLister is the read side of the review store, used by the nested
// product route.
type ReviewLister interface {
	ListByProduct(ctx context.Context, productID string) ([]*review.Review, error)
}

// ReviewHandlers serves review creation, editing, deletion, and the nested
// per-product listing.
type ReviewHandlers struct {
	svc     *review.Service
	lister  ReviewLister
	verbose bool
}

// NewReviewHandlers creates the review handlers.
func NewReviewHandlers(svc *review.Service, lister ReviewLister, verbose bool) *ReviewHandlers {
	return &ReviewHandlers{svc: svc, lister: lister, verbose: verbose}
}

// ListForProduct returns all reviews of the product in the path, newest
// first.
func (h *ReviewHandlers) ListForProduct(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.lister.ListByProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if reviews == nil {
		reviews = []*review.Review{}
	}
	respond(w, http.StatusOK, reviews)
}

// Create stores the caller's review of the product in the path.
func (h *ReviewHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating int    `json:"rating"`
		Review string `json:"review"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}

	rev, err := h.svc.Create(r.Context(), identity(r), r.PathValue("id"), req.Rating, req.Review)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusCreated, rev)
}

// Update edits the identified review, subject to the ownership rule.
func (h *ReviewHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating int    `json:"rating"`
		Review string `json:"review"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}

	rev, err := h.svc.Update(r.Context(), identity(r), r.PathValue("id"), req.Rating, req.Review)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, rev)
}

// Delete removes the identified review, subject to the ownership rule.
func (h *ReviewHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), identity(r), r.PathValue("id")); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
