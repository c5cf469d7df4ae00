package docstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

type record struct {
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *MemoryStoreSuite) seed(id string, r record) {
	s.Require().NoError(s.store.Collection("records").Set(s.ctx, id, r))
}

// TestGetSetDelete verifies the basic document lifecycle.
func (s *MemoryStoreSuite) TestGetSetDelete() {
	s.Run("round-trips a document", func() {
		s.seed("r1", record{Name: "alpha", Amount: 10})

		var got record
		s.Require().NoError(s.store.Collection("records").Get(s.ctx, "r1", &got))
		s.Equal("alpha", got.Name)
		s.Equal(10.0, got.Amount)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		var got record
		err := s.store.Collection("records").Get(s.ctx, "missing", &got)
		s.Require().ErrorIs(err, ErrNotFound)
	})

	s.Run("delete removes the document", func() {
		s.seed("r2", record{Name: "beta"})
		s.Require().NoError(s.store.Collection("records").Delete(s.ctx, "r2"))

		var got record
		s.Require().ErrorIs(s.store.Collection("records").Get(s.ctx, "r2", &got), ErrNotFound)
	})
}

// TestFilters verifies each supported operator.
func (s *MemoryStoreSuite) TestFilters() {
	s.seed("r1", record{Name: "alpha", Amount: 10, Tags: []string{"a", "b"}})
	s.seed("r2", record{Name: "beta", Amount: 20, Tags: []string{"b"}})
	s.seed("r3", record{Name: "gamma", Amount: 30, Tags: []string{"c"}})

	ids := func(q Query) []string {
		snaps, err := s.store.Collection("records").Documents(s.ctx, q)
		s.Require().NoError(err)
		var out []string
		for _, snap := range snaps {
			out = append(out, snap.ID())
		}
		return out
	}

	s.Run("equality", func() {
		s.Equal([]string{"r2"}, ids(Query{Filters: []Filter{{Field: "name", Op: OpEqual, Value: "beta"}}}))
	})

	s.Run("range", func() {
		s.Equal([]string{"r2", "r3"}, ids(Query{Filters: []Filter{{Field: "amount", Op: OpGreaterEqual, Value: 20}}}))
		s.Equal([]string{"r1"}, ids(Query{Filters: []Filter{{Field: "amount", Op: OpLess, Value: 20}}}))
	})

	s.Run("array-contains", func() {
		s.Equal([]string{"r1", "r2"}, ids(Query{Filters: []Filter{{Field: "tags", Op: OpArrayContains, Value: "b"}}}))
	})

	s.Run("rejects inequality filters on two fields", func() {
		_, err := s.store.Collection("records").Documents(s.ctx, Query{Filters: []Filter{
			{Field: "amount", Op: OpGreaterEqual, Value: 10},
			{Field: "name", Op: OpLess, Value: "z"},
		}})
		s.Require().Error(err)
	})

	s.Run("allows two inequality filters on one field", func() {
		s.Equal([]string{"r2"}, ids(Query{Filters: []Filter{
			{Field: "amount", Op: OpGreaterEqual, Value: 15},
			{Field: "amount", Op: OpLessEqual, Value: 25},
		}}))
	})
}

// TestOrdering verifies sort order and the document-ID tie-break.
func (s *MemoryStoreSuite) TestOrdering() {
	s.seed("b", record{Amount: 10})
	s.seed("a", record{Amount: 10})
	s.seed("c", record{Amount: 5})

	ids := func(q Query) []string {
		snaps, err := s.store.Collection("records").Documents(s.ctx, q)
		s.Require().NoError(err)
		var out []string
		for _, snap := range snaps {
			out = append(out, snap.ID())
		}
		return out
	}

	s.Run("ascending with ID tie-break", func() {
		s.Equal([]string{"c", "a", "b"}, ids(Query{OrderBy: &Order{Field: "amount"}}))
	})

	s.Run("descending reverses the tie-break too", func() {
		s.Equal([]string{"b", "a", "c"}, ids(Query{OrderBy: &Order{Field: "amount", Desc: true}}))
	})

	s.Run("documents without the order field are excluded", func() {
		s.Require().NoError(s.store.Collection("records").Set(s.ctx, "d", map[string]any{"name": "no amount"}))
		s.Equal([]string{"c", "a", "b"}, ids(Query{OrderBy: &Order{Field: "amount"}}))
	})
}

// TestCursorResumption verifies StartAfter paging semantics.
func (s *MemoryStoreSuite) TestCursorResumption() {
	for i := 1; i <= 5; i++ {
		s.seed(fmt.Sprintf("r%d", i), record{Amount: float64(i * 10)})
	}

	ids := func(q Query) []string {
		snaps, err := s.store.Collection("records").Documents(s.ctx, q)
		s.Require().NoError(err)
		var out []string
		for _, snap := range snaps {
			out = append(out, snap.ID())
		}
		return out
	}

	s.Run("resumes strictly after the position", func() {
		s.Equal([]string{"r3", "r4", "r5"}, ids(Query{
			OrderBy:    &Order{Field: "amount"},
			StartAfter: &Position{SortValue: 20, DocID: "r2"},
		}))
	})

	s.Run("ties advance by document id", func() {
		s.seed("r2b", record{Amount: 20})
		s.Equal([]string{"r2b", "r3", "r4", "r5"}, ids(Query{
			OrderBy:    &Order{Field: "amount"},
			StartAfter: &Position{SortValue: 20, DocID: "r2"},
		}))
		s.Require().NoError(s.store.Collection("records").Delete(s.ctx, "r2b"))
	})

	s.Run("survives deletion of the positioned document", func() {
		s.Require().NoError(s.store.Collection("records").Delete(s.ctx, "r3"))
		s.Equal([]string{"r4", "r5"}, ids(Query{
			OrderBy:    &Order{Field: "amount"},
			StartAfter: &Position{SortValue: 30, DocID: "r3"},
		}))
		s.seed("r3", record{Amount: 30})
	})

	s.Run("limit truncates the page", func() {
		s.Equal([]string{"r1", "r2"}, ids(Query{OrderBy: &Order{Field: "amount"}, Limit: 2}))
	})
}

// TestBatchAtomicity verifies batches apply all-or-nothing.
func (s *MemoryStoreSuite) TestBatchAtomicity() {
	s.Run("commit applies every write", func() {
		batch := s.store.Batch()
		batch.Set("roots", "x1", record{Name: "root"})
		batch.Set("satellites", "x1", record{Name: "satellite"})
		s.Require().NoError(batch.Commit(s.ctx))

		var got record
		s.Require().NoError(s.store.Collection("roots").Get(s.ctx, "x1", &got))
		s.Require().NoError(s.store.Collection("satellites").Get(s.ctx, "x1", &got))
	})

	s.Run("encode failure aborts the whole batch", func() {
		batch := s.store.Batch()
		batch.Set("roots", "x2", record{Name: "fine"})
		batch.Set("satellites", "x2", make(chan int)) // not encodable
		s.Require().Error(batch.Commit(s.ctx))

		var got record
		s.Require().ErrorIs(s.store.Collection("roots").Get(s.ctx, "x2", &got), ErrNotFound)
		s.Require().ErrorIs(s.store.Collection("satellites").Get(s.ctx, "x2", &got), ErrNotFound)
	})

	s.Run("batched delete is applied with the writes", func() {
		s.Require().NoError(s.store.Collection("roots").Set(s.ctx, "old", record{Name: "old"}))
		batch := s.store.Batch()
		batch.Set("roots", "new", record{Name: "new"})
		batch.Delete("roots", "old")
		s.Require().NoError(batch.Commit(s.ctx))

		var got record
		s.Require().NoError(s.store.Collection("roots").Get(s.ctx, "new", &got))
		s.Require().ErrorIs(s.store.Collection("roots").Get(s.ctx, "old", &got), ErrNotFound)
	})
}

// TestCompare covers the normalization rules used by filters and ordering.
func TestCompare(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("orders times given as values or RFC 3339 strings", func(t *testing.T) {
		if Compare(now, now.Add(time.Hour)) >= 0 {
			t.Fatal("expected earlier time to compare less")
		}
		if Compare(now.Format(time.RFC3339Nano), now.Add(time.Second).Format(time.RFC3339Nano)) >= 0 {
			t.Fatal("expected string timestamps to compare as times")
		}
	})

	t.Run("sub-second timestamps do not fall back to text order", func(t *testing.T) {
		// "10:00:00.5" sorts after "10:00:00Z" as a time, before it as text.
		a := now.Format(time.RFC3339Nano)
		b := now.Add(500 * time.Millisecond).Format(time.RFC3339Nano)
		if Compare(a, b) >= 0 {
			t.Fatalf("expected %s < %s", a, b)
		}
	})

	t.Run("mixed numeric types compare numerically", func(t *testing.T) {
		if Compare(10, 10.0) != 0 {
			t.Fatal("expected int and float to compare equal")
		}
		if Compare(int64(9), 10.0) >= 0 {
			t.Fatal("expected 9 < 10.0")
		}
	})

	t.Run("nil sorts first", func(t *testing.T) {
		if Compare(nil, "anything") >= 0 {
			t.Fatal("expected nil to sort first")
		}
	})
}
