package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverdesk/internal/docstore"
)

func TestComposeEqualityOnly(t *testing.T) {
	plan := Compose(Request{
		Filters: map[string]any{"status": "approved", "contractNumber": "CON001"},
		Sort:    docstore.Order{Field: "createdAt", Desc: true},
	})

	require.Len(t, plan.Filters, 2)
	for _, f := range plan.Filters {
		assert.Equal(t, docstore.OpEqual, f.Op)
	}
	assert.Equal(t, docstore.Order{Field: "createdAt", Desc: true}, plan.OrderBy)
	assert.Empty(t, plan.Post)
	assert.False(t, plan.Resort)
}

func TestComposeSingleRangeIsNative(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	plan := Compose(Request{
		Filters: map[string]any{"createdAt": Range{From: from, To: to}},
		Sort:    docstore.Order{Field: "createdAt", Desc: true},
	})

	require.Len(t, plan.Filters, 2)
	assert.Equal(t, docstore.OpGreaterEqual, plan.Filters[0].Op)
	assert.Equal(t, docstore.OpLessEqual, plan.Filters[1].Op)
	assert.Empty(t, plan.Post)
	assert.False(t, plan.Resort)
}

// Two range fields cannot both execute natively; the first by field name
// wins and the other becomes an in-memory predicate.
func TestComposeSecondRangeFallsBackToMemory(t *testing.T) {
	plan := Compose(Request{
		Filters: map[string]any{
			"updatedAt": Range{From: time.Now()},
			"createdAt": Range{From: time.Now()},
		},
	})

	require.Len(t, plan.Filters, 1)
	assert.Equal(t, "createdAt", plan.Filters[0].Field)
	require.Len(t, plan.Post, 1)
	assert.Equal(t, "updatedAt", plan.Post[0].Field)
}

func TestComposePrefixCompilesToBoundedRange(t *testing.T) {
	plan := Compose(Request{
		Filters: map[string]any{"claimantName": Prefix("Smi")},
		Sort:    docstore.Order{Field: "claimantName"},
	})

	require.Len(t, plan.Filters, 2)
	assert.Equal(t, docstore.Filter{Field: "claimantName", Op: docstore.OpGreaterEqual, Value: "Smi"}, plan.Filters[0])
	assert.Equal(t, docstore.Filter{Field: "claimantName", Op: docstore.OpLess, Value: "Smi" + prefixUpperBound}, plan.Filters[1])
}

// When the sort field differs from the inequality field, the store orders by
// the inequality field and the caller re-sorts in memory.
func TestComposeSortMismatchResorts(t *testing.T) {
	plan := Compose(Request{
		Filters: map[string]any{"createdAt": Range{From: time.Now()}},
		Sort:    docstore.Order{Field: "claimantName"},
	})

	assert.Equal(t, docstore.Order{Field: "createdAt"}, plan.OrderBy)
	assert.True(t, plan.Resort)
}

func TestComposeDropsSentinels(t *testing.T) {
	plan := Compose(Request{
		Filters: map[string]any{
			"status":         "all",
			"contractNumber": "",
			"claimantName":   Prefix(""),
			"createdAt":      Range{},
			"policiesId":     "ALL",
		},
		Sort: docstore.Order{Field: "createdAt", Desc: true},
	})

	assert.Empty(t, plan.Filters)
	assert.Empty(t, plan.Post)
	assert.Equal(t, docstore.Order{Field: "createdAt", Desc: true}, plan.OrderBy)
}

func TestComposePostPredicatesMatch(t *testing.T) {
	plan := Compose(Request{
		Filters: map[string]any{
			"amount": Range{From: 10.0, To: 20.0},
			"name":   Prefix("ab"),
		},
	})

	// "amount" is native (first by field name); "name" runs in memory.
	require.Len(t, plan.Post, 1)
	p := plan.Post[0]
	assert.Equal(t, "name", p.Field)
	assert.True(t, p.Match("abc"))
	assert.False(t, p.Match("ba"))
	assert.False(t, p.Match(42))
}

func TestPlanQuery(t *testing.T) {
	plan := Compose(Request{
		Filters: map[string]any{"status": "approved"},
		Sort:    docstore.Order{Field: "createdAt", Desc: true},
	})

	q := plan.Query("", 25)
	assert.Equal(t, 25, q.Limit)
	require.NotNil(t, q.OrderBy)
	assert.Equal(t, plan.OrderBy, *q.OrderBy)
	assert.Nil(t, q.StartAfter)
}
