package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/storefront/internal/auth"
	"github.com/sellora/storefront/internal/domain/user"
	"github.com/sellora/storefront/internal/mail"
	"github.com/sellora/storefront/internal/query"
)

type mockUserRepo struct {
	users   map[string]*user.User
	listed  []*user.User
	total   int64
	created *user.User
	updated *user.User
	deleted string
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(context.Context, string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) List(context.Context, int, int) ([]*user.User, int64, error) {
	return m.listed, m.total, nil
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	m.created = u
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, u *user.User) error {
	m.updated = u
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return user.ErrNotFound
	}
	m.deleted = id
	return nil
}

type stubSessions struct{}

func (stubSessions) Create(context.Context, *auth.Session) error { return nil }
func (stubSessions) GetByTokenHash(context.Context, string) (*auth.Session, error) {
	return nil, auth.ErrInvalidToken
}
func (stubSessions) DeleteByTokenHash(context.Context, string) error { return nil }
func (stubSessions) DeleteByUser(context.Context, string) error      { return nil }

type stubMailer struct{}

func (stubMailer) Send(context.Context, mail.Message) error { return nil }

func adminHandlers(repo *mockUserRepo) *AdminUserHandlers {
	svc := auth.NewService(repo, stubSessions{}, stubMailer{}, "pepper", time.Hour)
	return NewAdminUserHandlers(svc, repo, false)
}

func TestAdminUsers_ListEnvelope(t *testing.T) {
	repo := &mockUserRepo{
		listed: []*user.User{{ID: "u1", Name: "Jane"}, {ID: "u2", Name: "Omar"}},
		total:  7,
	}
	h := adminHandlers(repo)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/users?page=1&limit=5", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Results    int              `json:"results"`
		Pagination query.Pagination `json:"pagination"`
		Data       []user.User      `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Results)
	assert.Equal(t, 2, body.Pagination.NumberOfPages)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Jane", body.Data[0].Name)
}

func TestAdminUsers_CreateWithRole(t *testing.T) {
	repo := &mockUserRepo{}
	h := adminHandlers(repo)

	req := httptest.NewRequest(http.MethodPost, "/users",
		strings.NewReader(`{"name":"Store Manager","email":"MGR@Example.com","password":"s3cret","role":"manager"}`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, user.RoleManager, repo.created.Role)
	assert.Equal(t, "mgr@example.com", repo.created.Email)
	assert.NotEqual(t, "s3cret", repo.created.PasswordHash)
}

func TestAdminUsers_CreateRejectsUnknownRole(t *testing.T) {
	repo := &mockUserRepo{}
	h := adminHandlers(repo)

	req := httptest.NewRequest(http.MethodPost, "/users",
		strings.NewReader(`{"name":"X","email":"x@example.com","password":"s3cret","role":"root"}`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, repo.created)
}

func TestAdminUsers_UpdateDeactivates(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*user.User{
		"u1": {ID: "u1", Name: "Jane", Role: user.RoleUser, Active: true},
	}}
	h := adminHandlers(repo)

	req := httptest.NewRequest(http.MethodPut, "/users/u1", strings.NewReader(`{"active":false,"role":"manager"}`))
	req.SetPathValue("id", "u1")
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, repo.updated)
	assert.False(t, repo.updated.Active)
	assert.Equal(t, user.RoleManager, repo.updated.Role)
}

func TestAdminUsers_DeleteNoContent(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*user.User{"u1": {ID: "u1"}}}
	h := adminHandlers(repo)

	req := httptest.NewRequest(http.MethodDelete, "/users/u1", nil)
	req.SetPathValue("id", "u1")
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "u1", repo.deleted)

	req = httptest.NewRequest(http.MethodDelete, "/users/ghost", nil)
	req.SetPathValue("id", "ghost")
	rr = httptest.NewRecorder()
	h.Delete(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
