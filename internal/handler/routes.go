package handler

import (
	"net/http"

	"github.com/sellora/storefront/internal/auth"
	"github.com/sellora/storefront/internal/domain/user"
	"github.com/sellora/storefront/internal/query"
	"github.com/sellora/storefront/internal/resource"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Store      resource.Store
	Auth       *AuthHandlers
	AuthMW     *auth.Middleware
	Cart       *CartHandlers
	Orders     *OrderHandlers
	Users      *UserHandlers
	AdminUsers *AdminUserHandlers
	Reviews    *ReviewHandlers
	Verbose    bool
}

// NewRouter mounts the full API under /api/v1. Reads on the catalog are
// public; catalog writes require an elevated role; everything touching a
// user's own data requires a valid bearer token.
func NewRouter(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	authed := d.AuthMW.RequireUser
	elevated := d.AuthMW.RequireRole(user.RoleAdmin, user.RoleManager)

	// Catalog collections share the generic CRUD handlers.
	for _, desc := range []resource.Descriptor{
		CategoryDescriptor, SubcategoryDescriptor, BrandDescriptor, ProductDescriptor,
	} {
		h := resource.NewHandlers(desc, d.Store, d.Verbose)
		base := "/api/v1/" + desc.Table
		mux.HandleFunc("GET "+base, h.List)
		mux.HandleFunc("GET "+base+"/{id}", h.Get)
		mux.Handle("POST "+base, elevated(http.HandlerFunc(h.Create)))
		mux.Handle("PUT "+base+"/{id}", elevated(http.HandlerFunc(h.Update)))
		mux.Handle("DELETE "+base+"/{id}", elevated(http.HandlerFunc(h.Delete)))
	}

	// Coupons are admin-only end to end; their names are secrets.
	coupons := resource.NewHandlers(CouponDescriptor, d.Store, d.Verbose)
	mux.Handle("GET /api/v1/coupons", elevated(http.HandlerFunc(coupons.List)))
	mux.Handle("GET /api/v1/coupons/{id}", elevated(http.HandlerFunc(coupons.Get)))
	mux.Handle("POST /api/v1/coupons", elevated(http.HandlerFunc(coupons.Create)))
	mux.Handle("PUT /api/v1/coupons/{id}", elevated(http.HandlerFunc(coupons.Update)))
	mux.Handle("DELETE /api/v1/coupons/{id}", elevated(http.HandlerFunc(coupons.Delete)))

	// Nested reads scope the child collection to the parent in the path.
	subcategories := resource.NewHandlers(SubcategoryDescriptor, d.Store, d.Verbose)
	mux.HandleFunc("GET /api/v1/categories/{id}/subcategories", func(w http.ResponseWriter, r *http.Request) {
		subcategories.ListScoped(w, r, query.Filter{Field: "category", Op: query.OpEq, Value: r.PathValue("id")})
	})
	products := resource.NewHandlers(ProductDescriptor, d.Store, d.Verbose)
	mux.HandleFunc("GET /api/v1/brands/{id}/products", func(w http.ResponseWriter, r *http.Request) {
		products.ListScoped(w, r, query.Filter{Field: "brand", Op: query.OpEq, Value: r.PathValue("id")})
	})

	// Auth.
	mux.HandleFunc("POST /api/v1/auth/signup", d.Auth.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", d.Auth.Login)
	mux.Handle("POST /api/v1/auth/logout", authed(http.HandlerFunc(d.Auth.Logout)))
	mux.HandleFunc("POST /api/v1/auth/forgot-password", d.Auth.ForgotPassword)
	mux.HandleFunc("POST /api/v1/auth/verify-reset-code", d.Auth.VerifyResetCode)
	mux.HandleFunc("POST /api/v1/auth/reset-password", d.Auth.ResetPassword)

	// Profile, wishlist, addresses.
	mux.Handle("GET /api/v1/users/me", authed(http.HandlerFunc(d.Users.Me)))
	mux.Handle("PUT /api/v1/users/me", authed(http.HandlerFunc(d.Users.UpdateMe)))
	mux.Handle("PUT /api/v1/users/me/password", authed(http.HandlerFunc(d.Auth.ChangePassword)))

	// Account management. The literal /users/me patterns above win over the
	// {id} wildcards.
	mux.Handle("GET /api/v1/users", elevated(http.HandlerFunc(d.AdminUsers.List)))
	mux.Handle("POST /api/v1/users", elevated(http.HandlerFunc(d.AdminUsers.Create)))
	mux.Handle("GET /api/v1/users/{id}", elevated(http.HandlerFunc(d.AdminUsers.Get)))
	mux.Handle("PUT /api/v1/users/{id}", elevated(http.HandlerFunc(d.AdminUsers.Update)))
	mux.Handle("DELETE /api/v1/users/{id}", elevated(http.HandlerFunc(d.AdminUsers.Delete)))
	mux.Handle("GET /api/v1/wishlist", authed(http.HandlerFunc(d.Users.Wishlist)))
	mux.Handle("POST /api/v1/wishlist", authed(http.HandlerFunc(d.Users.AddToWishlist)))
	mux.Handle("DELETE /api/v1/wishlist/{productID}", authed(http.HandlerFunc(d.Users.RemoveFromWishlist)))
	mux.Handle("GET /api/v1/addresses", authed(http.HandlerFunc(d.Users.Addresses)))
	mux.Handle("POST /api/v1/addresses", authed(http.HandlerFunc(d.Users.AddAddress)))
	mux.Handle("DELETE /api/v1/addresses/{id}", authed(http.HandlerFunc(d.Users.RemoveAddress)))

	// Cart.
	mux.Handle("GET /api/v1/cart", authed(http.HandlerFunc(d.Cart.Get)))
	mux.Handle("POST /api/v1/cart", authed(http.HandlerFunc(d.Cart.Add)))
	mux.Handle("DELETE /api/v1/cart", authed(http.HandlerFunc(d.Cart.Clear)))
	mux.Handle("PUT /api/v1/cart/items/{itemID}", authed(http.HandlerFunc(d.Cart.UpdateItem)))
	mux.Handle("DELETE /api/v1/cart/items/{itemID}", authed(http.HandlerFunc(d.Cart.RemoveItem)))
	mux.Handle("POST /api/v1/cart/apply-coupon", authed(http.HandlerFunc(d.Cart.ApplyCoupon)))

	// Orders.
	mux.Handle("GET /api/v1/orders", authed(http.HandlerFunc(d.Orders.List)))
	mux.Handle("POST /api/v1/orders/cash/{cartID}", authed(http.HandlerFunc(d.Orders.PlaceCash)))
	mux.Handle("POST /api/v1/orders/checkout-session/{cartID}", authed(http.HandlerFunc(d.Orders.CheckoutSession)))
	mux.Handle("GET /api/v1/orders/{id}", authed(http.HandlerFunc(d.Orders.Get)))
	mux.Handle("PUT /api/v1/orders/{id}/pay", elevated(http.HandlerFunc(d.Orders.MarkPaid)))
	mux.Handle("PUT /api/v1/orders/{id}/deliver", elevated(http.HandlerFunc(d.Orders.MarkDelivered)))

	// Reviews, nested under their product for reading and creation.
	mux.HandleFunc("GET /api/v1/products/{id}/reviews", d.Reviews.ListForProduct)
	mux.Handle("POST /api/v1/products/{id}/reviews", authed(http.HandlerFunc(d.Reviews.Create)))
	mux.Handle("PUT /api/v1/reviews/{id}", authed(http.HandlerFunc(d.Reviews.Update)))
	mux.Handle("DELETE /api/v1/reviews/{id}", authed(http.HandlerFunc(d.Reviews.Delete)))

	return mux
}
