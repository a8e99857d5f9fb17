package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/sellora/storefront/internal/apierr"
	"github.com/sellora/storefront/internal/domain/user"
)

// UserHandlers serves the profile, wishlist, and address book endpoints. All
// of them operate on the authenticated caller's own account.
type UserHandlers struct {
	users   user.Repository
	verbose bool
}

// NewUserHandlers creates the user handlers.
func NewUserHandlers(users user.Repository, verbose bool) *UserHandlers {
	return &UserHandlers{users: users, verbose: verbose}
}

// Me returns the caller's account.
func (h *UserHandlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), identity(r).UserID)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, u)
}

// UpdateMe updates the caller's profile fields. Email, password, and role do
// not change here; email/password go through auth, roles are assigned out of
// band.
func (h *UserHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           *string `json:"name"`
		Phone          *string `json:"phone"`
		ProfilePicture *string `json:"profilePicture"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}

	u, err := h.users.GetByID(r.Context(), identity(r).UserID)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if req.Name != nil && *req.Name != "" {
		u.Name = *req.Name
		u.Slug = slug.Make(*req.Name)
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.ProfilePicture != nil {
		u.ProfilePicture = *req.ProfilePicture
	}

	if err := h.users.Update(r.Context(), u); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, u)
}

// Wishlist returns the caller's wishlist product ids.
func (h *UserHandlers) Wishlist(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), identity(r).UserID)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, u.Wishlist)
}

// AddToWishlist puts a product id on the caller's wishlist. Re-adding an id
// already present is a no-op.
func (h *UserHandlers) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if req.ProductID == "" {
		renderErr(w, apierr.BadRequest("product is required"), h.verbose)
		return
	}

	u, err := h.users.GetByID(r.Context(), identity(r).UserID)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	u.AddToWishlist(req.ProductID)
	if err := h.users.Update(r.Context(), u); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, u.Wishlist)
}

// RemoveFromWishlist drops a product id from the caller's wishlist.
func (h *UserHandlers) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), identity(r).UserID)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	u.RemoveFromWishlist(r.PathValue("productID"))
	if err := h.users.Update(r.Context(), u); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, u.Wishlist)
}

// Addresses returns the caller's saved addresses.
func (h *UserHandlers) Addresses(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), identity(r).UserID)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, u.Addresses)
}

// AddAddress saves a new address on the caller's account.
func (h *UserHandlers) AddAddress(w http.ResponseWriter, r *http.Request) {
	var addr user.Address
	if err := decodeBody(r, &addr); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if addr.Details == "" || addr.City == "" {
		renderErr(w, apierr.BadRequest("details and city are required"), h.verbose)
		return
	}
	addr.ID = uuid.New().String()

	u, err := h.users.GetByID(r.Context(), identity(r).UserID)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	u.AddAddress(addr)
	if err := h.users.Update(r.Context(), u); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusCreated, u.Addresses)
}

// RemoveAddress deletes one saved address.
func (h *UserHandlers) RemoveAddress(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), identity(r).UserID)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	u.RemoveAddress(r.PathValue("id"))
	if err := h.users.Update(r.Context(), u); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, u.Addresses)
}
