package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverdesk/internal/docstore"
)

func TestCursorRoundTrip(t *testing.T) {
	order := docstore.Order{Field: "createdAt", Desc: true}
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	cursor := EncodeCursor(order, at, "CLM17001")
	require.NotEmpty(t, cursor)

	pos := DecodeCursor(cursor, order)
	require.NotNil(t, pos)
	assert.Equal(t, "CLM17001", pos.DocID)
	assert.Equal(t, at, pos.SortValue, "timestamp sort values survive the JSON round trip as times")
}

func TestCursorSortChangeInvalidates(t *testing.T) {
	order := docstore.Order{Field: "createdAt", Desc: true}
	cursor := EncodeCursor(order, time.Now(), "CLM1")

	assert.Nil(t, DecodeCursor(cursor, docstore.Order{Field: "claimantName", Desc: true}),
		"a different sort field restarts from the beginning")
	assert.Nil(t, DecodeCursor(cursor, docstore.Order{Field: "createdAt", Desc: false}),
		"a flipped direction restarts from the beginning")
}

func TestCursorMalformedInputs(t *testing.T) {
	order := docstore.Order{Field: "createdAt"}

	assert.Nil(t, DecodeCursor("", order))
	assert.Nil(t, DecodeCursor("not-base64!!", order))
	assert.Nil(t, DecodeCursor("aGVsbG8", order)) // valid base64, not a token
}

func TestCursorNonTimeSortValue(t *testing.T) {
	order := docstore.Order{Field: "claimantName"}
	cursor := EncodeCursor(order, "Smith", "CLM2")

	pos := DecodeCursor(cursor, order)
	require.NotNil(t, pos)
	assert.Equal(t, "Smith", pos.SortValue)
}

func TestHasMore(t *testing.T) {
	assert.True(t, HasMore(5, 5))
	assert.False(t, HasMore(4, 5))
	assert.False(t, HasMore(0, 5))
}
