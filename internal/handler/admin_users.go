package handler

import (
	"net/http"
	"strings"

	"github.com/gosimple/slug"

	"github.com/sellora/storefront/internal/apierr"
	"github.com/sellora/storefront/internal/auth"
	"github.com/sellora/storefront/internal/domain/user"
	"github.com/sellora/storefront/internal/query"
)

// AdminUserHandlers serves account management for elevated roles: listing,
// lookup, creation with an assigned role, profile edits, and removal.
type AdminUserHandlers struct {
	svc     *auth.Service
	users   user.Repository
	verbose bool
}

// NewAdminUserHandlers creates the admin account handlers.
func NewAdminUserHandlers(svc *auth.Service, users user.Repository, verbose bool) *AdminUserHandlers {
	return &AdminUserHandlers{svc: svc, users: users, verbose: verbose}
}

// List returns one page of accounts, newest first.
func (h *AdminUserHandlers) List(w http.ResponseWriter, r *http.Request) {
	spec := query.Parse(r.URL.Query())
	users, total, err := h.users.List(r.Context(), spec.Limit, spec.Offset())
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if users == nil {
		users = []*user.User{}
	}
	respondList(w, len(users), spec.Paginate(total), users)
}

// Get returns one account by id.
func (h *AdminUserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, u)
}

// Create registers an account with an assigned role. The new owner logs in
// with the handed-over password; no session is issued here.
func (h *AdminUserHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		renderErr(w, apierr.BadRequest("name, email, and a password of at least 6 characters are required"), h.verbose)
		return
	}
	if req.Role == "" {
		req.Role = user.RoleUser
	}
	if !validRole(req.Role) {
		renderErr(w, apierr.BadRequest("unknown role %q", req.Role), h.verbose)
		return
	}

	u, err := h.svc.CreateUser(r.Context(), req.Name, strings.ToLower(req.Email), req.Password, req.Role)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusCreated, u)
}

// Update applies a partial edit to an account: name, phone, role, or the
// active flag. Credentials never change here; they go through auth.
func (h *AdminUserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   *string `json:"name"`
		Phone  *string `json:"phone"`
		Role   *string `json:"role"`
		Active *bool   `json:"active"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if req.Role != nil && !validRole(*req.Role) {
		renderErr(w, apierr.BadRequest("unknown role %q", *req.Role), h.verbose)
		return
	}

	u, err := h.users.GetByID(r.Context(), r.PathValue("id"))
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
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}

	if err := h.users.Update(r.Context(), u); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, u)
}

// Delete removes an account and, through the schema, its sessions and cart.
func (h *AdminUserHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), r.PathValue("id")); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validRole(role string) bool {
	switch role {
	case user.RoleUser, user.RoleAdmin, user.RoleManager:
		return true
	}
	return false
}
