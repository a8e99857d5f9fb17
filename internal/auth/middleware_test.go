package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/storefront/internal/domain/user"
)

func signupToken(t *testing.T, svc *Service, role string) string {
	t.Helper()
	u, token, err := svc.Signup(t.Context(), "Test User", role+"@example.com", "s3cret")
	require.NoError(t, err)
	u.Role = role
	return token
}

func TestRequireUser(t *testing.T) {
	svc := newTestService(&mockUsers{}, &mockSessions{}, &mockMailer{})
	mw := NewMiddleware(svc, false)
	token := signupToken(t, svc, user.RoleUser)

	var gotIdent user.Identity
	h := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdent, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid token", header: "Bearer " + token, want: http.StatusOK},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}

	assert.Equal(t, user.RoleUser, gotIdent.Role)
	assert.NotEmpty(t, gotIdent.UserID)
}

func TestRequireRole(t *testing.T) {
	svc := newTestService(&mockUsers{}, &mockSessions{}, &mockMailer{})
	mw := NewMiddleware(svc, false)

	userToken := signupToken(t, svc, user.RoleUser)
	adminToken := signupToken(t, svc, user.RoleAdmin)

	h := mw.RequireRole(user.RoleAdmin, user.RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "role check still requires a token first")
}
