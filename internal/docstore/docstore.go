// Package docstore is the typed client boundary for the hosted document
// datastore. It exposes get-by-key, filtered/ordered listing with resumable
// positions, and atomic multi-document batches. Two implementations exist:
// Firestore for production and an in-memory store with the same query
// semantics for tests and local development.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Collection.Get when no document exists under the
// requested key. Callers decide whether absence is an error (root records) or
// an absent satellite.
var ErrNotFound = errors.New("docstore: document not found")

// Op is a filter operator. The operator strings match the datastore's wire
// protocol.
type Op string

const (
	OpEqual         Op = "=="
	OpGreaterEqual  Op = ">="
	OpLessEqual     Op = "<="
	OpGreater       Op = ">"
	OpLess          Op = "<"
	OpArrayContains Op = "array-contains"
)

// IsInequality reports whether the operator constrains a range. The datastore
// allows at most one field to carry inequality filters per query.
func (o Op) IsInequality() bool {
	switch o {
	case OpGreaterEqual, OpLessEqual, OpGreater, OpLess:
		return true
	}
	return false
}

// Filter is a single field predicate.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order is the query sort. The datastore breaks ties on document ID in the
// same direction.
type Order struct {
	Field string
	Desc  bool
}

// Position resumes a query strictly after the document with the given sort
// value and ID, under the same Order that produced it.
type Position struct {
	SortValue any
	DocID     string
}

// Query is a filtered, ordered, cursored listing request.
type Query struct {
	Filters    []Filter
	OrderBy    *Order
	StartAfter *Position
	Limit      int
}

// Snapshot is one document returned by a query.
type Snapshot interface {
	ID() string
	DataTo(dst any) error
}

// Collection is typed access to one named document collection.
type Collection interface {
	Get(ctx context.Context, id string, dst any) error
	Set(ctx context.Context, id string, doc any) error
	Delete(ctx context.Context, id string) error
	Documents(ctx context.Context, q Query) ([]Snapshot, error)
}

// Batch accumulates writes committed as a single all-or-nothing unit.
type Batch interface {
	Set(collection, id string, doc any)
	Delete(collection, id string)
	Commit(ctx context.Context) error
}

// Store is the datastore client boundary.
type Store interface {
	Collection(name string) Collection
	Batch() Batch
	Health(ctx context.Context) error
	Close() error
}

// Compare orders two field values the way the datastore does: nil first, then
// booleans, numbers, and strings. Timestamps may surface as time.Time or as
// RFC 3339 strings depending on the implementation, so both are normalized
// before comparison.
func Compare(a, b any) int {
	at, aok := asTime(a)
	bt, bok := asTime(b)
	if aok && bok {
		return at.Compare(bt)
	}

	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
