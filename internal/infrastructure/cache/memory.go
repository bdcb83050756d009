package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/platepicker/backend/internal/domain"
)

// DefaultMemorySize bounds the in-memory cache when no size is configured
const DefaultMemorySize = 10000

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value      []byte
	Expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.Expiration.IsZero() && now.After(i.Expiration)
}

// MemoryCache is a size-bounded, thread-safe in-memory cache with per-entry TTL.
// Least recently used entries are evicted once the size limit is reached.
type MemoryCache struct {
	data *lru.Cache[string, cacheItem]
	now  func() time.Time
}

// NewMemoryCache creates a new in-memory cache holding at most size entries
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}

	data, err := lru.New[string, cacheItem](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &MemoryCache{data: data, now: time.Now}, nil
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	item, ok := c.data.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	if item.expired(c.now()) {
		c.data.Remove(key)
		return nil, domain.ErrCacheMiss
	}

	return append([]byte(nil), item.Value...), nil
}

// Set stores a value in the cache with TTL. A zero TTL never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := cacheItem{Value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.Expiration = c.now().Add(ttl)
	}
	c.data.Add(key, item)
	return nil
}
