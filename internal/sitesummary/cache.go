package sitesummary

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores summaries keyed by site origin. Implementations are
// last-write-wins; concurrent extraction for the same origin is wasteful
// but harmless.
type Cache interface {
	Get(ctx context.Context, origin string) (*BusinessSummary, bool)
	Set(ctx context.Context, origin string, summary *BusinessSummary, ttl time.Duration)
}

type memoryEntry struct {
	summary   *BusinessSummary
	expiresAt time.Time
}

// MemoryCache is the default single-process cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memoryEntry{}, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, origin string) (*BusinessSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[origin]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, origin)
		return nil, false
	}
	return entry.summary, true
}

func (c *MemoryCache) Set(_ context.Context, origin string, summary *BusinessSummary, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[origin] = memoryEntry{summary: summary, expiresAt: c.now().Add(ttl)}
}

// RedisCache shares summaries across processes. Redis errors degrade to a
// cache miss; a flaky cache must never take down the chat path.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	if client == nil {
		panic("sitesummary: redis client cannot be nil")
	}
	return &RedisCache{client: client}
}

func summaryKey(origin string) string {
	return fmt.Sprintf("site_summary:%s", origin)
}

func (c *RedisCache) Get(ctx context.Context, origin string) (*BusinessSummary, bool) {
	data, err := c.client.Get(ctx, summaryKey(origin)).Bytes()
	if err != nil {
		return nil, false
	}
	var summary BusinessSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

func (c *RedisCache) Set(ctx context.Context, origin string, summary *BusinessSummary, ttl time.Duration) {
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	c.client.Set(ctx, summaryKey(origin), data, ttl)
}
