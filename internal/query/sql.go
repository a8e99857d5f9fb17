package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Collections store their payload in a JSONB "doc" column next to a few real
// columns. Filters and sorts on the real columns hit them directly; anything
// else goes through the doc.
var columnFields = map[string]string{
	"id":        "id",
	"slug":      "slug",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

var identRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// WhereSQL renders the Spec's filters and keyword search into a WHERE clause
// with positional arguments starting at $1. searchFields is the
// collection-specific set of fields the keyword matches against (OR-combined,
// case-insensitive substring). An empty clause returns "".
//
// Ordering comparisons on numeric-looking values are performed numerically
// via a ::numeric cast; everything else compares as text, which is also how
// equality behaves.
func (s Spec) WhereSQL(searchFields []string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range s.Filters {
		expr, ok := fieldExpr(f.Field, arg)
		if !ok {
			continue
		}
		if f.Op != OpEq {
			if num, err := decimal.NewFromString(f.Value); err == nil {
				conds = append(conds, fmt.Sprintf("(%s)::numeric %s %s", expr, f.Op, arg(num)))
				continue
			}
		}
		conds = append(conds, fmt.Sprintf("%s %s %s", expr, f.Op, arg(f.Value)))
	}

	if s.Keyword != "" && len(searchFields) > 0 {
		pattern := arg("%" + escapeLike(s.Keyword) + "%")
		var ors []string
		for _, field := range searchFields {
			expr, ok := fieldExpr(field, arg)
			if !ok {
				continue
			}
			ors = append(ors, fmt.Sprintf("%s ILIKE %s", expr, pattern))
		}
		if len(ors) > 0 {
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// OrderSQL renders the sort keys into an ORDER BY clause. Keys that are
// neither real columns nor plain identifiers are dropped rather than
// rejected. Falls back to newest-first when nothing survives.
func (s Spec) OrderSQL() string {
	var parts []string
	for _, k := range s.Sort {
		expr, ok := sortExpr(k.Field)
		if !ok {
			continue
		}
		if k.Desc {
			expr += " DESC"
		}
		parts = append(parts, expr)
	}
	if len(parts) == 0 {
		return "ORDER BY created_at DESC"
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// LimitSQL renders the page window.
func (s Spec) LimitSQL() string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", s.Limit, s.Offset())
}

// fieldExpr returns the SQL expression addressing a field. Real columns map
// directly; everything else is a JSONB text extraction with the key passed
// as a bind argument, so arbitrary field names stay injection-safe.
func fieldExpr(field string, arg func(any) string) (string, bool) {
	if col, ok := columnFields[field]; ok {
		return col, true
	}
	return "doc->>" + arg(field), true
}

// sortExpr is like fieldExpr but for ORDER BY, where bind arguments cannot
// name the key; identifiers are validated instead.
func sortExpr(field string) (string, bool) {
	if col, ok := columnFields[field]; ok {
		return col, true
	}
	if !identRE.MatchString(field) {
		return "", false
	}
	return fmt.Sprintf("doc->>'%s'", field), true
}

// escapeLike escapes the LIKE metacharacters in a keyword so it matches as a
// literal substring.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
