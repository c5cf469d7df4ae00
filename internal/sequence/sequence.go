// Package sequence allocates human-readable identifiers of the form
// <PREFIX><zero-padded sequence> (POL001, CON042). The Redis allocator uses a
// centralized counter so concurrent writers never collide; the scan allocator
// is the legacy max-suffix strategy kept for deployments without Redis.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// width is the minimum digit width of the numeric suffix. Sequences beyond
// 999 simply grow a digit.
const width = 3

// ScanFunc reports the highest numeric suffix currently in use for a prefix,
// or 0 when none exist.
type ScanFunc func(ctx context.Context) (int64, error)

// Allocator hands out the next identifier for a prefix.
type Allocator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

// Format renders an identifier from a prefix and sequence number.
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// Suffix parses the numeric suffix of an identifier under the given prefix.
func Suffix(id, prefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ScanAllocator computes the next identifier by scanning for the current
// maximum suffix and incrementing. Two concurrent writers can observe the
// same maximum and produce the same identifier; prefer the Redis allocator
// wherever it is configured.
type ScanAllocator struct {
	scans map[string]ScanFunc
}

// NewScan creates a scan-based allocator over per-prefix scan functions.
func NewScan(scans map[string]ScanFunc) *ScanAllocator {
	return &ScanAllocator{scans: scans}
}

func (a *ScanAllocator) Next(ctx context.Context, prefix string) (string, error) {
	scan, ok := a.scans[prefix]
	if !ok {
		return "", fmt.Errorf("sequence: no scanner registered for prefix %q", prefix)
	}
	max, err := scan(ctx)
	if err != nil {
		return "", fmt.Errorf("sequence: scan %s: %w", prefix, err)
	}
	return Format(prefix, max+1), nil
}
