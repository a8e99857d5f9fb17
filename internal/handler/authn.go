package handler

import (
	"net/http"
	"strings"

	"github.com/sellora/storefront/internal/apierr"
	"github.com/sellora/storefront/internal/auth"
)

// AuthHandlers serves signup, login, logout, and the password reset flow.
type AuthHandlers struct {
	svc     *auth.Service
	verbose bool
}

// NewAuthHandlers creates the auth handlers.
func NewAuthHandlers(svc *auth.Service, verbose bool) *AuthHandlers {
	return &AuthHandlers{svc: svc, verbose: verbose}
}

// Signup registers an account and returns it with a bearer token.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		renderErr(w, apierr.BadRequest("name, email, and a password of at least 6 characters are required"), h.verbose)
		return
	}

	u, token, err := h.svc.Signup(r.Context(), req.Name, strings.ToLower(req.Email), req.Password)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"user": u, "token": token})
}

// Login verifies credentials and returns the account with a fresh token.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}

	u, token, err := h.svc.Login(r.Context(), strings.ToLower(req.Email), req.Password)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, map[string]any{"user": u, "token": token})
}

// Logout drops the caller's session.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if err := h.svc.Logout(r.Context(), token); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword replaces the caller's password after verifying the current
// one. Every other session dies; the response carries the replacement token.
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		Password        string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if req.CurrentPassword == "" || len(req.Password) < 6 {
		renderErr(w, apierr.BadRequest("currentPassword and a new password of at least 6 characters are required"), h.verbose)
		return
	}

	token, err := h.svc.ChangePassword(r.Context(), identity(r).UserID, req.CurrentPassword, req.Password)
	if err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, map[string]any{"token": token})
}

// ForgotPassword mails a reset code to the account's address.
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), strings.ToLower(req.Email)); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": "reset code sent"})
}

// VerifyResetCode checks the emailed code.
func (h *AuthHandlers) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}

	if err := h.svc.VerifyResetCode(r.Context(), strings.ToLower(req.Email), req.Code); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": "code verified"})
}

// ResetPassword replaces the password after a verified code.
func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	if len(req.Password) < 6 {
		renderErr(w, apierr.BadRequest("password must be at least 6 characters"), h.verbose)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), strings.ToLower(req.Email), req.Password); err != nil {
		renderErr(w, err, h.verbose)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": "password updated"})
}
