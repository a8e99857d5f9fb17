// Package query translates stringly-typed list parameters (as found in a URL
// query string) into a structured, immutable query specification that the
// storage layer renders into SQL. It also computes pagination metadata.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Reserved parameter names that never become field filters.
const (
	paramPage    = "page"
	paramLimit   = "limit"
	paramSort    = "sort"
	paramFields  = "fields"
	paramKeyword = "keyword"
)

// DefaultLimit is the page size used when the request does not supply one.
const DefaultLimit = 5

// Op is a comparison operator in a field filter.
type Op string

const (
	OpEq  Op = "="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

// Filter compares a single document field against a value.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// SortKey orders results by a single field.
type SortKey struct {
	Field string
	Desc  bool
}

// Spec is an immutable description of a list query: filters, sort order,
// field projection, keyword search, and pagination. Build one with Parse and
// derive variants with the With* methods; none of them mutate the receiver.
type Spec struct {
	Filters []Filter
	Sort    []SortKey
	Fields  []string
	Keyword string
	Page    int
	Limit   int
}

// Parse builds a Spec from raw URL query values.
//
// Filters use the bracket convention: price[gt]=100, quantity[lte]=3. A bare
// key (color=red) is an equality filter. Operator tokens outside
// gt/gte/lt/lte/eq are not rejected: the bracketed key is kept verbatim as an
// equality filter, which then simply matches nothing.
func Parse(values url.Values) Spec {
	s := Spec{
		Page:  positiveInt(values.Get(paramPage), 1),
		Limit: positiveInt(values.Get(paramLimit), DefaultLimit),
	}

	if sort := values.Get(paramSort); sort != "" {
		s.Sort = parseSort(sort)
	} else {
		s.Sort = []SortKey{{Field: "createdAt", Desc: true}}
	}

	if fields := values.Get(paramFields); fields != "" {
		for f := range strings.SplitSeq(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				s.Fields = append(s.Fields, f)
			}
		}
	}

	s.Keyword = values.Get(paramKeyword)

	for key, vals := range values {
		if isReserved(key) || len(vals) == 0 {
			continue
		}
		s.Filters = append(s.Filters, parseFilter(key, vals[0]))
	}

	return s
}

// WithFilter returns a copy of the Spec with an additional filter appended.
// Used to fold nested-route and ownership constraints into a list query.
func (s Spec) WithFilter(f Filter) Spec {
	filters := make([]Filter, 0, len(s.Filters)+1)
	filters = append(filters, s.Filters...)
	filters = append(filters, f)
	s.Filters = filters
	return s
}

// WithKeyword returns a copy of the Spec with the keyword replaced.
func (s Spec) WithKeyword(keyword string) Spec {
	s.Keyword = keyword
	return s
}

// Offset is the number of records skipped before the current page.
func (s Spec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// parseFilter interprets a single key=value pair. Keys of the form
// field[op] map op onto a comparison operator; anything else is equality.
func parseFilter(key, value string) Filter {
	open := strings.IndexByte(key, '[')
	if open > 0 && strings.HasSuffix(key, "]") {
		field := key[:open]
		token := key[open+1 : len(key)-1]
		if op, ok := opFromToken(token); ok {
			return Filter{Field: field, Op: op, Value: value}
		}
	}
	return Filter{Field: key, Op: OpEq, Value: value}
}

func opFromToken(token string) (Op, bool) {
	switch token {
	case "gt":
		return OpGt, true
	case "gte":
		return OpGte, true
	case "lt":
		return OpLt, true
	case "lte":
		return OpLte, true
	case "eq":
		return OpEq, true
	}
	return "", false
}

// parseSort splits a comma-separated sort expression. A leading '-' flips
// the key to descending.
func parseSort(expr string) []SortKey {
	var keys []SortKey
	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			keys = append(keys, SortKey{Field: part[1:], Desc: true})
		} else {
			keys = append(keys, SortKey{Field: part})
		}
	}
	return keys
}

func isReserved(key string) bool {
	switch key {
	case paramPage, paramLimit, paramSort, paramFields, paramKeyword:
		return true
	}
	return false
}

// positiveInt parses v as a positive integer, falling back to def when the
// value is absent, malformed, or non-positive.
func positiveInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
