package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store with the same query semantics as the
// hosted datastore, including the single-inequality-field constraint and
// document-ID tie-breaking. Used by unit tests and local development.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]any)}
}

func (s *MemoryStore) Collection(name string) Collection {
	return &memCollection{store: s, name: name}
}

func (s *MemoryStore) Batch() Batch {
	return &memBatch{store: s}
}

func (s *MemoryStore) Health(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// encode normalizes a document through JSON so stored values carry the same
// shapes (string/float64/bool/nil) regardless of the caller's struct types.
func encode(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return m, nil
}

type memCollection struct {
	store *MemoryStore
	name  string
}

func (c *memCollection) Get(ctx context.Context, id string, dst any) error {
	c.store.mu.RLock()
	doc, ok := c.store.collections[c.name][id]
	c.store.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return decodeInto(doc, dst)
}

func (c *memCollection) Set(ctx context.Context, id string, doc any) error {
	m, err := encode(doc)
	if err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.setLocked(c.name, id, m)
	return nil
}

func (c *memCollection) Delete(ctx context.Context, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	delete(c.store.collections[c.name], id)
	return nil
}

func (c *memCollection) Documents(ctx context.Context, q Query) ([]Snapshot, error) {
	if err := validateFilters(q.Filters); err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	var rows []memSnapshot
	for id, doc := range c.store.collections[c.name] {
		if !matches(doc, q.Filters) {
			continue
		}
		// The datastore omits documents missing the order-by field.
		if q.OrderBy != nil {
			if _, ok := doc[q.OrderBy.Field]; !ok {
				continue
			}
		}
		rows = append(rows, memSnapshot{id: id, data: doc})
	}
	c.store.mu.RUnlock()

	orderRows(rows, q.OrderBy)

	if q.StartAfter != nil {
		rows = dropThrough(rows, q.OrderBy, *q.StartAfter)
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]Snapshot, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func (s *MemoryStore) setLocked(collection, id string, doc map[string]any) {
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]map[string]any)
		s.collections[collection] = col
	}
	col[id] = doc
}

func validateFilters(filters []Filter) error {
	inequality := ""
	for _, f := range filters {
		if !f.Op.IsInequality() {
			continue
		}
		if inequality != "" && inequality != f.Field {
			return fmt.Errorf("docstore: inequality filters on multiple fields (%s, %s)", inequality, f.Field)
		}
		inequality = f.Field
	}
	return nil
}

func matches(doc map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if Compare(v, f.Value) != 0 {
				return false
			}
		case OpGreaterEqual:
			if Compare(v, f.Value) < 0 {
				return false
			}
		case OpLessEqual:
			if Compare(v, f.Value) > 0 {
				return false
			}
		case OpGreater:
			if Compare(v, f.Value) <= 0 {
				return false
			}
		case OpLess:
			if Compare(v, f.Value) >= 0 {
				return false
			}
		case OpArrayContains:
			arr, ok := v.([]any)
			if !ok {
				return false
			}
			found := false
			for _, el := range arr {
				if Compare(el, f.Value) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func orderRows(rows []memSnapshot, order *Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		return inOrder(rows[i], rows[j], order)
	})
}

func inOrder(a, b memSnapshot, order *Order) bool {
	if order == nil {
		return a.id < b.id
	}
	c := Compare(a.data[order.Field], b.data[order.Field])
	if c == 0 {
		if order.Desc {
			return a.id > b.id
		}
		return a.id < b.id
	}
	if order.Desc {
		return c > 0
	}
	return c < 0
}

// dropThrough keeps rows strictly after the cursor position in the total
// order, so resumption survives the positioned document being deleted.
func dropThrough(rows []memSnapshot, order *Order, pos Position) []memSnapshot {
	after := func(r memSnapshot) bool {
		if order == nil {
			return r.id > pos.DocID
		}
		c := Compare(r.data[order.Field], pos.SortValue)
		if c == 0 {
			if order.Desc {
				return r.id < pos.DocID
			}
			return r.id > pos.DocID
		}
		if order.Desc {
			return c < 0
		}
		return c > 0
	}
	for i, r := range rows {
		if after(r) {
			return rows[i:]
		}
	}
	return nil
}

type memSnapshot struct {
	id   string
	data map[string]any
}

func (s *memSnapshot) ID() string { return s.id }

func (s *memSnapshot) DataTo(dst any) error { return decodeInto(s.data, dst) }

func decodeInto(doc map[string]any, dst any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

type memBatch struct {
	store *MemoryStore
	ops   []memOp
	err   error
}

type memOp struct {
	collection string
	id         string
	doc        map[string]any // nil means delete
}

func (b *memBatch) Set(collection, id string, doc any) {
	m, err := encode(doc)
	if err != nil {
		b.err = err
		return
	}
	b.ops = append(b.ops, memOp{collection: collection, id: id, doc: m})
}

func (b *memBatch) Delete(collection, id string) {
	b.ops = append(b.ops, memOp{collection: collection, id: id})
}

// Commit applies every buffered write under one lock: all documents appear
// together or, on encode failure, none do.
func (b *memBatch) Commit(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, op := range b.ops {
		if op.doc == nil {
			delete(b.store.collections[op.collection], op.id)
			continue
		}
		b.store.setLocked(op.collection, op.id, op.doc)
	}
	return nil
}
