package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"arsys/backend/internal/sales"

	"github.com/go-redis/redis/v8"
)

const reportTTL = 5 * time.Minute

// ReportCache memoizes rendered sales reports keyed on the snapshot
// generation and the exact query, so unrelated requests never trigger a
// recompute and a new snapshot invalidates everything at once. Backed
// by redis when a client is given, by an in-process map otherwise.
type ReportCache struct {
	rdb *redis.Client

	mu      sync.Mutex
	gen     uint64
	entries map[string][]byte
}

func NewReportCache(rdb *redis.Client) *ReportCache {
	return &ReportCache{rdb: rdb, entries: make(map[string][]byte)}
}

func reportKey(gen uint64, q sales.Query) string {
	return fmt.Sprintf("sales:report:%d:%s:%s:%s", gen, q.Mode, q.User, q.Date)
}

// Get returns the cached report payload for (gen, q), if any.
func (c *ReportCache) Get(ctx context.Context, gen uint64, q sales.Query) ([]byte, bool) {
	key := reportKey(gen, q)
	if c.rdb != nil {
		payload, err := c.rdb.Get(ctx, key).Bytes()
		if err != nil {
			return nil, false
		}
		return payload, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return nil, false
	}
	payload, ok := c.entries[key]
	return payload, ok
}

// Set stores the report payload for (gen, q). The in-process map only
// keeps entries for one generation; the redis keys embed the generation
// and age out by TTL.
func (c *ReportCache) Set(ctx context.Context, gen uint64, q sales.Query, payload []byte) {
	key := reportKey(gen, q)
	if c.rdb != nil {
		_ = c.rdb.Set(ctx, key, payload, reportTTL).Err()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		c.gen = gen
		c.entries = make(map[string][]byte)
	}
	c.entries[key] = payload
}
