// Package handler wires the HTTP surface: the generic catalog CRUD plus the
// typed auth, cart, order, user, and review endpoints.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/sellora/storefront/internal/apierr"
	"github.com/sellora/storefront/internal/auth"
	"github.com/sellora/storefront/internal/domain/cart"
	"github.com/sellora/storefront/internal/domain/catalog"
	"github.com/sellora/storefront/internal/domain/coupon"
	"github.com/sellora/storefront/internal/domain/order"
	"github.com/sellora/storefront/internal/domain/review"
	"github.com/sellora/storefront/internal/domain/user"
	"github.com/sellora/storefront/internal/query"
)

// respond writes the success envelope every non-list endpoint shares.
func respond(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   data,
	})
}

// respondList writes the list envelope the catalog collections use, so every
// paginated endpoint answers in the same shape.
func respondList(w http.ResponseWriter, results int, p query.Pagination, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"results":    results,
		"pagination": p,
		"data":       data,
	})
}

// renderErr maps domain errors onto API errors before rendering. Unmapped
// errors stay opaque 500s.
func renderErr(w http.ResponseWriter, err error, verbose bool) {
	switch {
	case errors.Is(err, cart.ErrNotFound):
		err = apierr.NotFound("cart not found")
	case errors.Is(err, cart.ErrItemNotFound):
		err = apierr.NotFound("cart item not found")
	case errors.Is(err, catalog.ErrProductNotFound):
		err = apierr.NotFound("product not found")
	case errors.Is(err, order.ErrNotFound):
		err = apierr.NotFound("order not found")
	case errors.Is(err, review.ErrNotFound):
		err = apierr.NotFound("review not found")
	case errors.Is(err, user.ErrNotFound):
		err = apierr.NotFound("user not found")
	case errors.Is(err, order.ErrEmptyCart):
		err = apierr.BadRequest("cart has no items")
	case errors.Is(err, coupon.ErrExpiredOrInvalid):
		err = apierr.Conflict("coupon is expired or invalid")
	case errors.Is(err, review.ErrDuplicate):
		err = apierr.Conflict("product already reviewed")
	case errors.Is(err, review.ErrNotOwner):
		err = apierr.Forbidden("review belongs to another user")
	case errors.Is(err, user.ErrEmailTaken):
		err = apierr.Conflict("email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		err = apierr.Unauthorized("invalid email or password")
	case errors.Is(err, auth.ErrInvalidResetCode):
		err = apierr.Unauthorized("invalid or expired reset code")
	case errors.Is(err, auth.ErrResetNotVerified):
		err = apierr.Unauthorized("reset code not verified")
	}

	var invalidRating *review.InvalidRatingError
	if errors.As(err, &invalidRating) {
		err = apierr.BadRequest("rating must be between 1 and 5")
	}

	apierr.Render(w, err, verbose)
}

// decodeBody reads the JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.BadRequest("malformed JSON body")
	}
	return nil
}

// identity returns the authenticated caller. Routes behind RequireUser
// always carry one.
func identity(r *http.Request) user.Identity {
	ident, _ := auth.IdentityFrom(r.Context())
	return ident
}
