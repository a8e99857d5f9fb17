package handler

import (
	"net/http"

	"github.com/sellora/storefront/internal/apierr"
	"github.com/sellora/storefront/internal/domain/cart"
)

// CartHandlers serves the authenticated cart endpoints.
type CartHandlers struct {
	svc     *cart.Service
	verbose bool
}

// NewCartHandlers creates the cart handlers.
func NewCartHandlers(svc *cart.Service, verbose bool) *CartHandlers {
	return &CartHandlers{svc: svc, verbose: verbose}
}

// Add puts a product into the caller's cart, creating the cart on first use.
func (h *CartHandlers) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product"`
		Color     string `json:"color"`
		Quantity  int    `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if req.ProductID == "" {
		renderErr(w, apierr.BadRequest("product is required"), h.verbose)
		return
	}

	c, err := h.svc.AddProduct(r.Context(), identity(r).UserID, req.ProductID, req.Color, req.Quantity)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, c)
}

// Get returns the caller's cart.
func (h *CartHandlers) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), identity(r).UserID)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, c)
}

// UpdateItem replaces one line item's quantity.
func (h *CartHandlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if req.Quantity < 1 {
		renderErr(w, apierr.BadRequest("quantity must be at least 1"), h.verbose)
		return
	}

	c, err := h.svc.UpdateItemQuantity(r.Context(), identity(r).UserID, r.PathValue("itemID"), req.Quantity)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, c)
}

// RemoveItem deletes one line item.
func (h *CartHandlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.RemoveItem(r.Context(), identity(r).UserID, r.PathValue("itemID"))
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, c)
}

// Clear deletes the caller's cart.
func (h *CartHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context(), identity(r).UserID); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyCoupon applies a named coupon's discount to the caller's cart.
func (h *CartHandlers) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Coupon string `json:"coupon"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if req.Coupon == "" {
		renderErr(w, apierr.BadRequest("coupon is required"), h.verbose)
		return
	}

	c, err := h.svc.ApplyCoupon(r.Context(), identity(r).UserID, req.Coupon)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, c)
}
