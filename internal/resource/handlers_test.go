package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/storefront/internal/apierr"
	"github.com/sellora/storefront/internal/query"
)

type mockStore struct {
	records   []Record
	total     int64
	lastSpec  query.Spec
	lastTable string
	created   Record
	updated   Record
	deleted   string
	err       error
}

func (m *mockStore) List(_ context.Context, table string, spec query.Spec, _ []string) ([]Record, int64, error) {
	m.lastTable = table
	m.lastSpec = spec
	return m.records, m.total, m.err
}

func (m *mockStore) Get(_ context.Context, table, id string) (Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, rec := range m.records {
		if rec.ID() == id {
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockStore) Create(_ context.Context, table string, rec Record) error {
	m.created = rec
	return m.err
}

func (m *mockStore) Update(_ context.Context, table, id string, changes Record) (Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.updated = changes
	rec := Record{"id": id}
	for k, v := range changes {
		rec[k] = v
	}
	return rec, nil
}

func (m *mockStore) Delete(_ context.Context, table, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = id
	return nil
}

func categoryHandlers(store *mockStore) *Handlers {
	return NewHandlers(Descriptor{
		Name:         "category",
		Table:        "categories",
		SlugSource:   "name",
		SearchFields: []string{"name"},
	}, store, false)
}

func TestList_Envelope(t *testing.T) {
	store := &mockStore{
		records: []Record{{"id": "c1", "name": "Shoes"}},
		total:   11,
	}
	h := categoryHandlers(store)

	req := httptest.NewRequest(http.MethodGet, "/categories?page=2&limit=5", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Results    int              `json:"results"`
		Pagination query.Pagination `json:"pagination"`
		Data       []Record         `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Results)
	assert.Equal(t, 2, body.Pagination.Page)
	assert.Equal(t, 3, body.Pagination.NumberOfPages)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Shoes", body.Data[0]["name"])

	assert.Equal(t, "categories", store.lastTable)
	assert.Equal(t, 2, store.lastSpec.Page)
}

func TestList_EmptyPageIsArrayNotNull(t *testing.T) {
	h := categoryHandlers(&mockStore{})

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/categories", nil))

	assert.Contains(t, rr.Body.String(), `"data":[]`)
}

func TestListScoped_FoldsParentFilter(t *testing.T) {
	store := &mockStore{}
	h := NewHandlers(Descriptor{Name: "subcategory", Table: "subcategories"}, store, false)

	req := httptest.NewRequest(http.MethodGet, "/categories/c1/subcategories?name=Boots", nil)
	h.ListScoped(httptest.NewRecorder(), req, query.Filter{Field: "category", Op: query.OpEq, Value: "c1"})

	require.Len(t, store.lastSpec.Filters, 2)
	assert.Contains(t, store.lastSpec.Filters, query.Filter{Field: "category", Op: query.OpEq, Value: "c1"})
	assert.Contains(t, store.lastSpec.Filters, query.Filter{Field: "name", Op: query.OpEq, Value: "Boots"})
}

func TestGet_NotFound(t *testing.T) {
	h := categoryHandlers(&mockStore{})

	req := httptest.NewRequest(http.MethodGet, "/categories/missing", nil)
	req.SetPathValue("id", "missing")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "category not found")
	assert.Contains(t, rr.Body.String(), `"status":"failed"`)
}

func TestCreate_DerivesSlug(t *testing.T) {
	store := &mockStore{}
	h := categoryHandlers(store)

	req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Men's Shoes","id":"client-chosen"}`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, store.created)
	assert.Equal(t, "men-s-shoes", store.created["slug"])
	assert.NotEqual(t, "client-chosen", store.created["id"], "client ids are discarded")
	assert.NotEmpty(t, store.created["id"])
}

func TestCreate_MissingSlugSource(t *testing.T) {
	h := categoryHandlers(&mockStore{})

	req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"image":"x.png"}`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "category requires a name")
}

func TestCreate_ValidateHookRejects(t *testing.T) {
	store := &mockStore{}
	d := Descriptor{
		Name:       "subcategory",
		Table:      "subcategories",
		SlugSource: "name",
		Validate: func(_ context.Context, _ Store, rec, _ Record) error {
			if rec["category"] == nil {
				return apierr.BadRequest("subcategory requires a category")
			}
			return nil
		},
	}
	h := NewHandlers(d, store, false)

	req := httptest.NewRequest(http.MethodPost, "/subcategories", strings.NewReader(`{"name":"Boots"}`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, store.created, "rejected record never reaches the store")
}

func TestUpdate_ValidateSeesStoredRecord(t *testing.T) {
	store := &mockStore{records: []Record{{"id": "p1", "price": 100.0}}}
	var gotCurrent Record
	d := Descriptor{
		Name:  "product",
		Table: "products",
		Validate: func(_ context.Context, _ Store, _, current Record) error {
			gotCurrent = current
			return nil
		},
	}
	h := NewHandlers(d, store, false)

	req := httptest.NewRequest(http.MethodPut, "/products/p1", strings.NewReader(`{"quantity":3}`))
	req.SetPathValue("id", "p1")
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotCurrent, "update passes the stored record to the hook")
	assert.Equal(t, 100.0, gotCurrent["price"])
}

func TestCreate_MalformedBody(t *testing.T) {
	h := categoryHandlers(&mockStore{})

	req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdate_ReslugsOnRename(t *testing.T) {
	store := &mockStore{}
	h := categoryHandlers(store)

	req := httptest.NewRequest(http.MethodPut, "/categories/c1", strings.NewReader(`{"name":"Winter Gear"}`))
	req.SetPathValue("id", "c1")
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "winter-gear", store.updated["slug"])
}

func TestUpdate_WithoutRenameKeepsSlug(t *testing.T) {
	store := &mockStore{}
	h := categoryHandlers(store)

	req := httptest.NewRequest(http.MethodPut, "/categories/c1", strings.NewReader(`{"image":"new.png"}`))
	req.SetPathValue("id", "c1")
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	_, hasSlug := store.updated["slug"]
	assert.False(t, hasSlug)
}

func TestDelete_NoContent(t *testing.T) {
	store := &mockStore{records: []Record{{"id": "c1"}}}
	h := categoryHandlers(store)

	req := httptest.NewRequest(http.MethodDelete, "/categories/c1", nil)
	req.SetPathValue("id", "c1")
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "c1", store.deleted)
	assert.Empty(t, rr.Body.String())
}

func TestCreate_DuplicateMapsToConflict(t *testing.T) {
	store := &mockStore{err: ErrDuplicate}
	h := categoryHandlers(store)

	req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Shoes"}`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "category already exists")
}
