package resource

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/sellora/storefront/internal/apierr"
	"github.com/sellora/storefront/internal/query"
)

// reserved keys are managed by the handler/store, never taken from the
// request body.
var reservedKeys = []string{"id", "slug", "createdAt", "updatedAt"}

// Handlers is the HTTP CRUD surface for one collection. All collections get
// the same list/get/create/update/delete behaviour; the Descriptor supplies
// what differs.
type Handlers struct {
	d       Descriptor
	store   Store
	verbose bool
}

// NewHandlers builds the CRUD handlers for one collection. verbose controls
// error body detail.
func NewHandlers(d Descriptor, store Store, verbose bool) *Handlers {
	return &Handlers{d: d, store: store, verbose: verbose}
}

// List serves the collection's list endpoint: filters, sort, field
// projection, keyword search, and pagination all come from the query string.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	h.ListScoped(w, r)
}

// ListScoped is List with fixed filters folded in before user filters apply.
// Nested routes use it to scope a child collection to its parent.
func (h *Handlers) ListScoped(w http.ResponseWriter, r *http.Request, extra ...query.Filter) {
	spec := query.Parse(r.URL.Query())
	for _, f := range extra {
		spec = spec.WithFilter(f)
	}

	recs, total, err := h.store.List(r.Context(), h.d.Table, spec, h.d.SearchFields)
	if err != nil {
		h.renderErr(w, err)
		return
	}
	if recs == nil {
		recs = []Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results":    len(recs),
		"pagination": spec.Paginate(total),
		"data":       recs,
	})
}

// Get serves a single record by id.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(r.Context(), h.d.Table, r.PathValue("id"))
	if err != nil {
		h.renderErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(rec))
}

// Create inserts a new record from the request body. Reserved keys in the
// body are discarded; id and slug are derived server-side.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		h.renderErr(w, err)
		return
	}

	rec["id"] = uuid.New().String()
	if h.d.SlugSource != "" {
		src, _ := rec[h.d.SlugSource].(string)
		if src == "" {
			h.renderErr(w, apierr.BadRequest("%s requires a %s", h.d.Name, h.d.SlugSource))
			return
		}
		rec["slug"] = slug.Make(src)
	}

	if h.d.Validate != nil {
		if err := h.d.Validate(r.Context(), h.store, rec, nil); err != nil {
			h.renderErr(w, err)
			return
		}
	}

	if err := h.store.Create(r.Context(), h.d.Table, rec); err != nil {
		h.renderErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope(rec))
}

// Update applies a partial update to the identified record. Only keys
// present in the body change; a new SlugSource value re-derives the slug.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	changes, err := decodeRecord(r)
	if err != nil {
		h.renderErr(w, err)
		return
	}
	if h.d.SlugSource != "" {
		if src, ok := changes[h.d.SlugSource].(string); ok && src != "" {
			changes["slug"] = slug.Make(src)
		}
	}

	if h.d.Validate != nil {
		current, err := h.store.Get(r.Context(), h.d.Table, r.PathValue("id"))
		if err != nil {
			h.renderErr(w, err)
			return
		}
		if err := h.d.Validate(r.Context(), h.store, changes, current); err != nil {
			h.renderErr(w, err)
			return
		}
	}

	rec, err := h.store.Update(r.Context(), h.d.Table, r.PathValue("id"), changes)
	if err != nil {
		h.renderErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(rec))
}

// Delete removes the identified record and answers 204.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), h.d.Table, r.PathValue("id")); err != nil {
		h.renderErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) renderErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		err = apierr.NotFound("%s not found", h.d.Name)
	case errors.Is(err, ErrDuplicate):
		err = apierr.Conflict("%s already exists", h.d.Name)
	}
	apierr.Render(w, err, h.verbose)
}

// decodeRecord reads the JSON body into a Record and strips reserved keys.
func decodeRecord(r *http.Request) (Record, error) {
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		return nil, apierr.BadRequest("malformed JSON body")
	}
	for _, key := range reservedKeys {
		delete(rec, key)
	}
	if len(rec) == 0 {
		return nil, apierr.BadRequest("empty body")
	}
	return rec, nil
}

func envelope(data any) map[string]any {
	return map[string]any{"status": "success", "data": data}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
