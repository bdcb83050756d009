package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platepicker/backend/internal/domain"
)

func newTestCache(t *testing.T, size int) *MemoryCache {
	t.Helper()
	c, err := NewMemoryCache(size)
	require.NoError(t, err)
	return c
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := newTestCache(t, 10)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value []byte
		ttl   time.Duration
	}{
		{"store and retrieve plain bytes", "key-1", []byte("value"), time.Minute},
		{"store and retrieve json", "key-2", []byte(`{"id":"nbh-1","name":"Greenwich Village"}`), time.Minute},
		{"store without expiry", "key-3", []byte("forever"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, cache.Set(ctx, tt.key, tt.value, tt.ttl))

			got, err := cache.Get(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := newTestCache(t, 10)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "short", []byte("v"), time.Second))

	_, err := cache.Get(ctx, "short")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)

	_, err = cache.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.Equal(t, 0, cache.data.Len(), "expired entry should be dropped on read")
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	cache := newTestCache(t, 10)
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, cache.Set(ctx, "k", value, time.Minute))
	value[0] = 'x'

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got[1] = 'y'
	again, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := newTestCache(t, 10)

	_, err := cache.Get(context.Background(), "non-existent-key")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := newTestCache(t, 2)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), time.Minute))

	// touch "a" so "b" becomes the eviction candidate
	_, err := cache.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "c", []byte("3"), time.Minute))

	assert.Equal(t, 2, cache.data.Len())
	_, err = cache.Get(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	_, err = cache.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryCache_DefaultSize(t *testing.T) {
	cache := newTestCache(t, 0)
	require.NoError(t, cache.Set(context.Background(), "k", []byte("v"), 0))
	assert.Equal(t, 1, cache.data.Len())
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := newTestCache(t, 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", id)
			assert.NoError(t, cache.Set(ctx, key, []byte{byte(id)}, time.Minute))
			got, err := cache.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, []byte{byte(id)}, got)
		}(i)
	}
	wg.Wait()
}
