// Package search turns caller filter/sort/cursor requests into executable
// datastore query plans, working around the store's single-inequality-field
// constraint with in-memory fallbacks.
package search

import (
	"sort"
	"strings"

	"coverdesk/internal/docstore"
)

// AllSentinel is the filter value UIs send for "no filter". It is dropped,
// never translated into an equality predicate.
const AllSentinel = "all"

// prefixUpperBound is the highest code point the datastore orders, making
// [p, p+bound) a prefix match.
const prefixUpperBound = ""

// Range filters a field between From and To (either may be nil).
type Range struct {
	From any
	To   any
}

// Prefix filters a string field by prefix.
type Prefix string

// Request is the caller's search shape: field filters, a sort, a page size
// and an optional resumption cursor.
type Request struct {
	Filters  map[string]any // string/number equality, Range, or Prefix
	Sort     docstore.Order
	PageSize int
	Cursor   string
}

// Predicate is a filter the datastore could not execute natively; the caller
// applies it to fetched rows.
type Predicate struct {
	Field string
	Match func(v any) bool
}

// Plan is an executable search: native filters and ordering for the
// datastore, plus any predicates and re-sorting left for the caller.
type Plan struct {
	Filters []docstore.Filter
	OrderBy docstore.Order

	// Post holds predicates applied in memory to the fetched page. A page can
	// come back short of PageSize when Post drops rows; the cursor still
	// advances over the native result set so no rows are skipped.
	Post []Predicate

	// Resort means the datastore was asked for its default ordering (the
	// inequality field) and rows must be re-sorted by the requested sort in
	// memory. Cursors keep resuming over the native ordering.
	Resort bool
}

// Compose builds a Plan from a Request.
//
// Rules: at most one field carries a range/prefix predicate natively (first
// by field name, for determinism) and the rest become Post predicates;
// when the requested sort field is not the inequality field, the plan orders
// by the inequality field and marks Resort; empty-string and "all" sentinel
// values are omitted entirely. Conflicting ranges are not rejected: they
// execute and naturally return zero rows.
func Compose(req Request) Plan {
	var plan Plan

	fields := make([]string, 0, len(req.Filters))
	for f := range req.Filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	nativeRange := ""
	for _, field := range fields {
		value := req.Filters[field]
		if isSentinel(value) {
			continue
		}
		switch v := value.(type) {
		case Range:
			if nativeRange == "" || nativeRange == field {
				nativeRange = field
				plan.Filters = append(plan.Filters, rangeFilters(field, v)...)
			} else {
				plan.Post = append(plan.Post, rangePredicate(field, v))
			}
		case Prefix:
			if nativeRange == "" || nativeRange == field {
				nativeRange = field
				plan.Filters = append(plan.Filters,
					docstore.Filter{Field: field, Op: docstore.OpGreaterEqual, Value: string(v)},
					docstore.Filter{Field: field, Op: docstore.OpLess, Value: string(v) + prefixUpperBound},
				)
			} else {
				plan.Post = append(plan.Post, prefixPredicate(field, string(v)))
			}
		default:
			plan.Filters = append(plan.Filters, docstore.Filter{Field: field, Op: docstore.OpEqual, Value: value})
		}
	}

	switch {
	case nativeRange == "" || nativeRange == req.Sort.Field:
		plan.OrderBy = req.Sort
	default:
		// The store requires ordering by the inequality field first; honor
		// the caller's sort in memory instead.
		plan.OrderBy = docstore.Order{Field: nativeRange}
		if req.Sort.Field != "" {
			plan.Resort = true
		}
	}

	return plan
}

// Query assembles the datastore query for one page, resuming after the
// decoded cursor position when one is supplied.
func (p Plan) Query(cursor string, pageSize int) docstore.Query {
	q := docstore.Query{
		Filters: p.Filters,
		Limit:   pageSize,
	}
	if p.OrderBy.Field != "" {
		order := p.OrderBy
		q.OrderBy = &order
	}
	q.StartAfter = DecodeCursor(cursor, p.OrderBy)
	return q
}

func isSentinel(value any) bool {
	switch v := value.(type) {
	case string:
		return v == "" || strings.EqualFold(v, AllSentinel)
	case Prefix:
		return v == ""
	case Range:
		return v.From == nil && v.To == nil
	case nil:
		return true
	}
	return false
}

func rangeFilters(field string, r Range) []docstore.Filter {
	var out []docstore.Filter
	if r.From != nil {
		out = append(out, docstore.Filter{Field: field, Op: docstore.OpGreaterEqual, Value: r.From})
	}
	if r.To != nil {
		out = append(out, docstore.Filter{Field: field, Op: docstore.OpLessEqual, Value: r.To})
	}
	return out
}

func rangePredicate(field string, r Range) Predicate {
	return Predicate{Field: field, Match: func(v any) bool {
		if r.From != nil && docstore.Compare(v, r.From) < 0 {
			return false
		}
		if r.To != nil && docstore.Compare(v, r.To) > 0 {
			return false
		}
		return true
	}}
}

func prefixPredicate(field, prefix string) Predicate {
	return Predicate{Field: field, Match: func(v any) bool {
		s, ok := v.(string)
		return ok && strings.HasPrefix(s, prefix)
	}}
}
