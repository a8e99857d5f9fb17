package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellora/storefront/internal/query"
	"github.com/sellora/storefront/internal/resource"
)

var _ resource.Store = (*DocumentStore)(nil)

// DocumentStore implements resource.Store over the uniform collection
// tables. Table names come from static descriptors, never from request
// input, so interpolating them into SQL is safe.
type DocumentStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewDocumentStore returns a DocumentStore that uses the given pool.
func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool, now: time.Now}
}

// List returns one page of records plus the total count matching the spec.
// The count query shares the WHERE clause so both always agree.
func (s *DocumentStore) List(ctx context.Context, table string, spec query.Spec, searchFields []string) ([]resource.Record, int64, error) {
	where, args := spec.WhereSQL(searchFields)

	var total int64
	countSQL := fmt.Sprintf(`SELECT count(*) FROM %s %s`, table, where)
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrapf(err, "counting %s", table)
	}

	listSQL := fmt.Sprintf(`SELECT id, slug, doc, created_at, updated_at FROM %s %s %s %s`,
		table, where, spec.OrderSQL(), spec.LimitSQL())
	rows, err := s.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "listing %s", table)
	}

	recs, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "scanning %s", table)
	}
	if len(spec.Fields) > 0 {
		for i := range recs {
			recs[i] = project(recs[i], spec.Fields)
		}
	}
	return recs, total, nil
}

// Get returns a single record by id.
func (s *DocumentStore) Get(ctx context.Context, table, id string) (resource.Record, error) {
	getSQL := fmt.Sprintf(`SELECT id, slug, doc, created_at, updated_at FROM %s WHERE id = $1`, table)
	rows, err := s.pool.Query(ctx, getSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s %q", table, id)
	}

	rec, err := pgx.CollectExactlyOneRow(rows, scanRecord)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resource.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting %s %q", table, id)
	}
	return rec, nil
}

// Create inserts a new record. Unique violations (slug collisions) map to
// resource.ErrDuplicate.
func (s *DocumentStore) Create(ctx context.Context, table string, rec resource.Record) error {
	id, slug, doc, err := splitRecord(rec)
	if err != nil {
		return err
	}

	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (id, slug, doc, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`, table)
	now := s.now()
	if _, err := s.pool.Exec(ctx, insertSQL, id, slug, doc, now); err != nil {
		if isUniqueViolation(err) {
			return resource.ErrDuplicate
		}
		return errors.Wrapf(err, "creating %s", table)
	}
	rec["createdAt"] = now
	rec["updatedAt"] = now
	return nil
}

// Update merges the changed doc keys into the stored doc and replaces the
// slug when one is supplied. Returns the full updated record.
func (s *DocumentStore) Update(ctx context.Context, table, id string, changes resource.Record) (resource.Record, error) {
	_, slug, doc, err := splitRecord(changes)
	if err != nil {
		return nil, err
	}

	updateSQL := fmt.Sprintf(`UPDATE %s
		SET doc = doc || $2::jsonb, slug = COALESCE($3, slug), updated_at = $4
		WHERE id = $1
		RETURNING id, slug, doc, created_at, updated_at`, table)

	var slugArg *string
	if slug != "" {
		slugArg = &slug
	}
	rows, err := s.pool.Query(ctx, updateSQL, id, doc, slugArg, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "updating %s %q", table, id)
	}

	rec, err := pgx.CollectExactlyOneRow(rows, scanRecord)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resource.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, resource.ErrDuplicate
		}
		return nil, errors.Wrapf(err, "updating %s %q", table, id)
	}
	return rec, nil
}

// Delete removes a record, reporting resource.ErrNotFound when the id does
// not resolve.
func (s *DocumentStore) Delete(ctx context.Context, table, id string) error {
	deleteSQL := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)
	tag, err := s.pool.Exec(ctx, deleteSQL, id)
	if err != nil {
		return errors.Wrapf(err, "deleting %s %q", table, id)
	}
	if tag.RowsAffected() == 0 {
		return resource.ErrNotFound
	}
	return nil
}

// scanRecord folds the real columns and the JSONB doc into one flat Record.
func scanRecord(row pgx.CollectableRow) (resource.Record, error) {
	var (
		id, slug  string
		docRaw    []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &slug, &docRaw, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	rec := resource.Record{}
	if err := json.Unmarshal(docRaw, &rec); err != nil {
		return nil, errors.Wrap(err, "decoding doc")
	}
	rec["id"] = id
	if slug != "" {
		rec["slug"] = slug
	}
	rec["createdAt"] = createdAt
	rec["updatedAt"] = updatedAt
	return rec, nil
}

// splitRecord separates the reserved keys from the doc payload and encodes
// the payload for the JSONB column.
func splitRecord(rec resource.Record) (id, slug string, doc []byte, err error) {
	id, _ = rec["id"].(string)
	slug, _ = rec["slug"].(string)

	payload := make(map[string]any, len(rec))
	for k, v := range rec {
		switch k {
		case "id", "slug", "createdAt", "updatedAt":
			continue
		}
		payload[k] = v
	}
	doc, err = json.Marshal(payload)
	if err != nil {
		return "", "", nil, errors.Wrap(err, "encoding doc")
	}
	return id, slug, doc, nil
}

// project keeps only the requested fields, always retaining the id.
func project(rec resource.Record, fields []string) resource.Record {
	out := resource.Record{"id": rec["id"]}
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}
