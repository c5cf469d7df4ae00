package sequence

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisAllocator allocates identifiers from a centralized Redis counter, so
// concurrent writers always receive distinct sequences. On first use per
// prefix the counter is seeded from the legacy max-suffix scan, keeping
// existing records' numbering intact.
type RedisAllocator struct {
	client *redis.Client
	scans  map[string]ScanFunc

	mu     sync.Mutex
	seeded map[string]bool
}

// NewRedis creates a counter-based allocator. scans provides the per-prefix
// seed source; a missing scan seeds from zero.
func NewRedis(client *redis.Client, scans map[string]ScanFunc) *RedisAllocator {
	return &RedisAllocator{
		client: client,
		scans:  scans,
		seeded: make(map[string]bool),
	}
}

func (a *RedisAllocator) Next(ctx context.Context, prefix string) (string, error) {
	if err := a.ensureSeeded(ctx, prefix); err != nil {
		return "", err
	}
	n, err := a.client.Incr(ctx, seqKey(prefix)).Result()
	if err != nil {
		return "", fmt.Errorf("sequence: incr %s: %w", prefix, err)
	}
	return Format(prefix, n), nil
}

func (a *RedisAllocator) ensureSeeded(ctx context.Context, prefix string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seeded[prefix] {
		return nil
	}

	var max int64
	if scan, ok := a.scans[prefix]; ok {
		var err error
		max, err = scan(ctx)
		if err != nil {
			return fmt.Errorf("sequence: seed scan %s: %w", prefix, err)
		}
	}

	// SetNX so a concurrent process that already seeded wins.
	if err := a.client.SetNX(ctx, seqKey(prefix), max, 0).Err(); err != nil {
		return fmt.Errorf("sequence: seed %s: %w", prefix, err)
	}
	a.seeded[prefix] = true
	return nil
}

func seqKey(prefix string) string {
	return "coverdesk:seq:" + prefix
}
