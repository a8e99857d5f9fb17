package handler

import (
	"net/http"

	"github.com/sellora/storefront/internal/apierr"
	"github.com/sellora/storefront/internal/domain/order"
	"github.com/sellora/storefront/internal/domain/user"
	"github.com/sellora/storefront/internal/query"
)

// OrderHandlers serves order placement, lookup, and fulfilment flags.
type OrderHandlers struct {
	svc     *order.Service
	users   user.Repository
	verbose bool
}

// NewOrderHandlers creates the order handlers.
func NewOrderHandlers(svc *order.Service, users user.Repository, verbose bool) *OrderHandlers {
	return &OrderHandlers{svc: svc, users: users, verbose: verbose}
}

// PlaceCash places a cash-on-delivery order from the cart in the path.
func (h *OrderHandlers) PlaceCash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShippingAddress user.Address `json:"shippingAddress"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}

	o, err := h.svc.PlaceCashOrder(r.Context(), identity(r), r.PathValue("cartID"), req.ShippingAddress)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusCreated, o)
}

// CheckoutSession asks the payment gateway for a card checkout session over
// the cart in the path.
func (h *OrderHandlers) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SuccessURL string `json:"successUrl"`
		CancelURL  string `json:"cancelUrl"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		renderErr(w, apierr.BadRequest("successUrl and cancelUrl are required"), h.verbose)
		return
	}

	ident := identity(r)
	u, err := h.users.GetByID(r.Context(), ident.UserID)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}

	session, err := h.svc.CheckoutSession(r.Context(), ident, r.PathValue("cartID"), u.Email, req.SuccessURL, req.CancelURL)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, session)
}

// List returns one page of the caller's orders, newest first. Elevated roles
// see every account's orders.
func (h *OrderHandlers) List(w http.ResponseWriter, r *http.Request) {
	spec := query.Parse(r.URL.Query())
	orders, total, err := h.svc.ListOrders(r.Context(), identity(r), spec.Limit, spec.Offset())
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	respondList(w, len(orders), spec.Paginate(total), orders)
}

// Get returns one order. Callers only see their own orders; elevated roles
// see all of them.
func (h *OrderHandlers) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.GetOrder(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, o)
}

// MarkPaid flips the one-way paid flag. Admin only, enforced by the router.
func (h *OrderHandlers) MarkPaid(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.MarkPaid(r.Context(), r.PathValue("id"))
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, o)
}

// MarkDelivered flips the one-way delivered flag. Admin only.
func (h *OrderHandlers) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.MarkDelivered(r.Context(), r.PathValue("id"))
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, o)
}
