package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/abdhe/comparison-poster/pkg/metrics"
)

// Cache stores search results in Redis so that re-runs of overlapping
// keyword lists do not burn catalog API quota.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a Redis-backed search result cache.
func NewCache(addr, password string, db int, ttl time.Duration) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func cacheKey(keyword string) string {
	return "catalog:search:" + keyword
}

// Get retrieves cached products for a keyword. The second return is false
// on a miss.
func (c *Cache) Get(ctx context.Context, keyword string) ([]Product, bool, error) {
	val, err := c.client.Get(ctx, cacheKey(keyword)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog cache: get: %w", err)
	}

	var products []Product
	if err := json.Unmarshal([]byte(val), &products); err != nil {
		return nil, false, fmt.Errorf("catalog cache: unmarshal: %w", err)
	}
	return products, true, nil
}

// Set stores products for a keyword with the configured TTL.
func (c *Cache) Set(ctx context.Context, keyword string, products []Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("catalog cache: marshal: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(keyword), string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog cache: set: %w", err)
	}
	return nil
}

// CachingSearcher wraps a Searcher with the Redis cache. Cache errors are
// logged and treated as misses; they never fail a search.
type CachingSearcher struct {
	next  Searcher
	cache *Cache
	log   logrus.FieldLogger
}

// NewCachingSearcher wraps next with the cache.
func NewCachingSearcher(next Searcher, cache *Cache, log logrus.FieldLogger) *CachingSearcher {
	return &CachingSearcher{next: next, cache: cache, log: log}
}

// Search consults the cache before the underlying API.
func (c *CachingSearcher) Search(ctx context.Context, keyword string, max int) ([]Product, error) {
	products, hit, err := c.cache.Get(ctx, keyword)
	if err != nil {
		c.log.Warnf("catalog cache lookup failed: %v", err)
	}
	if hit {
		metrics.CatalogLookupsTotal.WithLabelValues("hit").Inc()
		if len(products) > max {
			products = products[:max]
		}
		return products, nil
	}
	metrics.CatalogLookupsTotal.WithLabelValues("miss").Inc()

	products, err = c.next.Search(ctx, keyword, max)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		if err := c.cache.Set(ctx, keyword, products); err != nil {
			c.log.Warnf("catalog cache store failed: %v", err)
		}
	}
	return products, nil
}
