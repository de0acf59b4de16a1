package summary

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"newsrag/internal/types"
)

// resultCache is a bounded in-memory store for generated summaries with
// TTL expiry and LRU eviction. Expiry is enforced lazily on reads only;
// an expired-but-unread entry keeps its capacity slot until it is
// touched or pushed out by LRU pressure.
type resultCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	accessTime map[string]time.Time
	maxSize    int
	defaultTTL time.Duration
	hits       int64
	misses     int64

	// Injectable clock for expiry tests.
	now func() time.Time
}

type cacheEntry struct {
	value  *types.SummaryResult
	expiry time.Time
}

func newResultCache(maxSize int, defaultTTL time.Duration) *resultCache {
	return &resultCache{
		entries:    make(map[string]cacheEntry),
		accessTime: make(map[string]time.Time),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// get returns the cached value for key, treating expired entries as
// absent and removing them on the spot.
func (c *resultCache) get(key string) (*types.SummaryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	now := c.now()
	if now.After(entry.expiry) {
		c.deleteLocked(key)
		c.misses++
		return nil, false
	}

	c.accessTime[key] = now
	c.hits++
	return entry.value, true
}

// set inserts or overwrites key, evicting the least-recently-accessed
// entry first when the cache is full and key is new.
func (c *resultCache) set(key string, value *types.SummaryResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	now := c.now()
	c.entries[key] = cacheEntry{value: value, expiry: now.Add(ttl)}
	c.accessTime[key] = now
}

func (c *resultCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(key)
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.accessTime = make(map[string]time.Time)
}

func (c *resultCache) deleteLocked(key string) {
	delete(c.entries, key)
	delete(c.accessTime, key)
}

// evictLocked removes the least-recently-accessed entry. Ties are
// broken arbitrarily by map order.
func (c *resultCache) evictLocked() {
	if len(c.accessTime) == 0 {
		return
	}
	var lruKey string
	var lruTime time.Time
	first := true
	for key, t := range c.accessTime {
		if first || t.Before(lruTime) {
			lruKey, lruTime = key, t
			first = false
		}
	}
	c.deleteLocked(lruKey)
}

func (c *resultCache) stats() types.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return types.CacheStats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}

// cacheKey hashes the query plus the sorted article IDs so identical
// requests hit the same entry regardless of article ordering.
func cacheKey(articles []types.ArticleRecord, query string) string {
	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	sort.Strings(ids)

	sum := md5.Sum([]byte(query + ":" + strings.Join(ids, "-")))
	return hex.EncodeToString(sum[:])
}
