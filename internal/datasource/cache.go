package datasource

import (
	"context"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-forecast/internal/metrics"
)

// DefaultCacheTTL matches how long a fetched page is considered fresh.
const DefaultCacheTTL = 300 * time.Second

// CachedSource wraps a Source with a time-boxed page cache. Failed fetches are not cached.
type CachedSource struct {
	source Source
	cache  *cache.Cache
	ttl    time.Duration
	logger *logrus.Entry

	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewCachedSource creates a cache in front of source.
func NewCachedSource(source Source, ttl time.Duration, logger *logrus.Entry) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, ttl*2),
		ttl:    ttl,
		logger: logger.WithField("component", "page_cache"),
	}
}

// Name returns the name of the wrapped data source
func (c *CachedSource) Name() string {
	return c.source.Name()
}

// FetchEntryPage returns a cached entry page or fetches it.
func (c *CachedSource) FetchEntryPage(ctx context.Context, raceID string) ([]byte, error) {
	return c.get(ctx, KindEntry, raceID, c.source.FetchEntryPage)
}

// FetchHistoryPage returns a cached history page or fetches it.
func (c *CachedSource) FetchHistoryPage(ctx context.Context, horseID string) ([]byte, error) {
	return c.get(ctx, KindHistory, horseID, c.source.FetchHistoryPage)
}

func (c *CachedSource) get(ctx context.Context, kind, id string, fetch func(context.Context, string) ([]byte, error)) ([]byte, error) {
	key := cacheKey(kind, id)
	if cached, found := c.cache.Get(key); found {
		if page, ok := cached.([]byte); ok {
			c.hitCount.Add(1)
			metrics.RecordCacheLookup(kind, true)
			c.logger.WithField("key", key).Debug("Cache hit")
			return page, nil
		}
	}

	c.missCount.Add(1)
	metrics.RecordCacheLookup(kind, false)

	page, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, page, c.ttl)
	return page, nil
}

// Invalidate drops one cached page.
func (c *CachedSource) Invalidate(kind, id string) {
	c.cache.Delete(cacheKey(kind, id))
}

// Clear flushes the entire cache
func (c *CachedSource) Clear() {
	c.cache.Flush()
	c.hitCount.Store(0)
	c.missCount.Store(0)
}

// Stats returns cache statistics
func (c *CachedSource) Stats() (hits, misses uint64, ratio float64) {
	hits = c.hitCount.Load()
	misses = c.missCount.Load()
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (c *CachedSource) ItemCount() int {
	return c.cache.ItemCount()
}

func cacheKey(kind, id string) string {
	return kind + ":" + id
}
