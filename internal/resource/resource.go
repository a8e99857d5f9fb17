// Package resource implements the generic CRUD machinery shared by the
// catalog collections (categories, subcategories, brands, products). A
// collection is described once by a Descriptor; the same store and handler
// code serves all of them.
package resource

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/sellora/storefront/internal/query"
)

var (
	// ErrNotFound is returned when a record id does not resolve in its
	// collection.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint,
	// usually the slug.
	ErrDuplicate = errors.New("duplicate record")
)

// Record is one collection document. The storage layer persists everything
// except the reserved keys (id, slug, createdAt, updatedAt) inside a JSONB
// doc; the reserved keys live in real columns.
type Record map[string]any

// ID returns the record's id, or "" when unset.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Store is the collection-agnostic persistence contract. List returns the
// page of records plus the total count matching the spec's filters.
type Store interface {
	List(ctx context.Context, table string, spec query.Spec, searchFields []string) ([]Record, int64, error)
	Get(ctx context.Context, table, id string) (Record, error)
	Create(ctx context.Context, table string, rec Record) error
	Update(ctx context.Context, table, id string, changes Record) (Record, error)
	Delete(ctx context.Context, table, id string) error
}

// ValidateFunc checks an incoming record against collection rules before a
// write. It may consult the store, e.g. to verify a referenced parent exists.
// On update, current is the stored record so rules spanning several fields
// can see values the partial body omits; on create it is nil.
type ValidateFunc func(ctx context.Context, store Store, rec, current Record) error

// Descriptor describes one collection: where it lives, how slugs are
// derived, which fields keyword search covers, and its validation rules.
type Descriptor struct {
	// Name is the singular noun used in error messages.
	Name string
	// Table is the backing table.
	Table string
	// SlugSource names the doc field whose value derives the slug on create
	// and on update when the field changes. Empty disables slugging.
	SlugSource string
	// SearchFields are the doc fields keyword search matches against.
	SearchFields []string
	// Validate runs before create and update. Nil means no extra rules.
	Validate ValidateFunc
}
