package search

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"coverdesk/internal/docstore"
)

// cursorToken is the decoded form of the opaque cursor: the sort that
// produced the page and the last row's position under it.
type cursorToken struct {
	Field     string `json:"f"`
	Desc      bool   `json:"d"`
	SortValue any    `json:"v"`
	DocID     string `json:"id"`
}

// EncodeCursor packs the last-returned row's position into an opaque token.
func EncodeCursor(order docstore.Order, sortValue any, docID string) string {
	raw, err := json.Marshal(cursorToken{
		Field:     order.Field,
		Desc:      order.Desc,
		SortValue: sortValue,
		DocID:     docID,
	})
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor unpacks a cursor for resumption under the given sort.
// An empty, malformed, or sort-mismatched cursor yields nil: the search
// restarts from the beginning rather than erroring, since a changed sort
// invalidates any prior position.
func DecodeCursor(cursor string, order docstore.Order) *docstore.Position {
	if cursor == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil
	}
	var tok cursorToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil
	}
	if tok.Field != order.Field || tok.Desc != order.Desc || tok.DocID == "" {
		return nil
	}
	return &docstore.Position{SortValue: reviveTime(tok.SortValue), DocID: tok.DocID}
}

// HasMore reports whether another page may exist. It is a heuristic, not an
// exact count: a result set whose size is an exact multiple of the page size
// reports one extra empty page.
func HasMore(returned, pageSize int) bool {
	return returned == pageSize
}

// reviveTime restores timestamp sort values that JSON flattened to strings,
// so resumption positions compare against stored timestamps, not text.
func reviveTime(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return v
}
