package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sellora/storefront/internal/apierr"
	"github.com/sellora/storefront/internal/domain/user"
)

type identityKey struct{}

// IdentityFrom extracts the authenticated identity placed by RequireUser.
// The second return is false on unauthenticated requests, which only happens
// on routes not behind the middleware.
func IdentityFrom(ctx context.Context) (user.Identity, bool) {
	ident, ok := ctx.Value(identityKey{}).(user.Identity)
	return ident, ok
}

// Middleware resolves bearer tokens into request identities.
type Middleware struct {
	svc     *Service
	verbose bool
}

// NewMiddleware creates the auth middleware. verbose controls error body
// detail and matches the server-wide error rendering mode.
func NewMiddleware(svc *Service, verbose bool) *Middleware {
	return &Middleware{svc: svc, verbose: verbose}
}

// RequireUser rejects requests without a valid bearer token and injects the
// resolved identity into the request context.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			apierr.Render(w, apierr.Unauthorized("missing bearer token"), m.verbose)
			return
		}
		ident, err := m.svc.Authenticate(r.Context(), token)
		if err != nil {
			apierr.Render(w, apierr.Unauthorized("invalid or expired token"), m.verbose)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole builds on RequireUser and additionally rejects identities whose
// role is not in the allow list.
func (m *Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, _ := IdentityFrom(r.Context())
			if _, ok := allowed[ident.Role]; !ok {
				apierr.Render(w, apierr.Forbidden("insufficient role"), m.verbose)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
