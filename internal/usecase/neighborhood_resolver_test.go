package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/platepicker/backend/internal/domain"
)

func newTestNeighborhoodResolver(client domain.NeighborhoodClient, cache domain.CacheRepository) *NeighborhoodResolver {
	return NewNeighborhoodResolver(client, cache, NeighborhoodResolverConfig{
		DefaultCity:  "New York",
		DefaultState: "NY",
		Retry:        fastRetry,
		CacheTTL:     time.Hour,
	}, nil)
}

func TestNeighborhoodResolver_FirstRecordWins(t *testing.T) {
	client := NewMockNeighborhoodClient()
	client.byCode["10014"] = []domain.NeighborhoodInfo{
		{ID: "gv", Name: "Greenwich Village", City: "New York", State: "NY"},
		{ID: "wv", Name: "West Village", City: "New York", State: "NY"},
	}

	got := newTestNeighborhoodResolver(client, nil).ResolveByPostalCode(context.Background(), "10014")

	assert.Equal(t, "gv", got.ID)
	assert.Equal(t, "Greenwich Village", got.Name)
	assert.False(t, IsFallback(got))
}

func TestNeighborhoodResolver_NotFoundFallsBackWithoutRetry(t *testing.T) {
	client := NewMockNeighborhoodClient()
	resolver := newTestNeighborhoodResolver(client, nil)

	first := resolver.ResolveByPostalCode(context.Background(), "10001")
	second := resolver.ResolveByPostalCode(context.Background(), "10001")

	want := domain.NeighborhoodInfo{ID: "mock-10001", Name: "10001 Area", City: "New York", State: "NY"}
	assert.Equal(t, want, first)
	assert.Equal(t, first, second, "fallback is deterministic")
	assert.True(t, IsFallback(first))
	assert.Equal(t, 2, client.Calls("10001"), "not-found is not retried and fallbacks are not cached")
}

func TestNeighborhoodResolver_ExhaustedRetriesFallBack(t *testing.T) {
	client := NewMockNeighborhoodClient()
	client.fn = func(context.Context, string) ([]domain.NeighborhoodInfo, error) {
		return nil, domain.ErrNeighborhoodAPIFailure
	}

	got := newTestNeighborhoodResolver(client, nil).ResolveByPostalCode(context.Background(), "10014")

	assert.Equal(t, "mock-10014", got.ID)
	assert.Equal(t, 3, client.Calls("10014"))
}

func TestNeighborhoodResolver_RecoversWithinBudget(t *testing.T) {
	client := NewMockNeighborhoodClient()
	calls := 0
	client.fn = func(context.Context, string) ([]domain.NeighborhoodInfo, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection reset")
		}
		return []domain.NeighborhoodInfo{{ID: "gv", Name: "Greenwich Village"}}, nil
	}

	got := newTestNeighborhoodResolver(client, nil).ResolveByPostalCode(context.Background(), "10014")

	assert.Equal(t, "gv", got.ID)
	assert.Equal(t, 2, client.Calls("10014"))
}

func TestNeighborhoodResolver_CachesGenuineLookups(t *testing.T) {
	client := NewMockNeighborhoodClient()
	client.byCode["10014"] = []domain.NeighborhoodInfo{{ID: "gv", Name: "Greenwich Village"}}
	cache := NewMockCacheRepository()
	resolver := newTestNeighborhoodResolver(client, cache)

	for i := 0; i < 3; i++ {
		assert.Equal(t, "gv", resolver.ResolveByPostalCode(context.Background(), "10014").ID)
	}

	assert.Equal(t, 1, client.Calls("10014"))
	assert.Equal(t, 1, cache.sets)
}

// blockingNeighborhoods makes the mock client hold every lookup until release
// is closed. entered receives once when the first lookup starts.
func blockingNeighborhoods(client *MockNeighborhoodClient) (entered <-chan struct{}, release chan struct{}) {
	enteredCh := make(chan struct{}, 1)
	release = make(chan struct{})
	client.fn = func(ctx context.Context, postalCode string) ([]domain.NeighborhoodInfo, error) {
		select {
		case enteredCh <- struct{}{}:
		default:
		}
		select {
		case <-release:
			return []domain.NeighborhoodInfo{{ID: "gv", Name: "Greenwich Village"}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return enteredCh, release
}

func TestNeighborhoodResolver_ConcurrentCallersShareOneLookup(t *testing.T) {
	client := NewMockNeighborhoodClient()
	entered, release := blockingNeighborhoods(client)
	resolver := newTestNeighborhoodResolver(client, NewMockCacheRepository())

	var wg sync.WaitGroup
	results := make([]domain.NeighborhoodInfo, 10)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = resolver.ResolveByPostalCode(context.Background(), "10014")
		}()
	}

	<-entered
	// give every caller time to join the in-flight lookup
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, "gv", got.ID)
	}
	assert.Equal(t, 1, client.Calls("10014"))
}

func TestNeighborhoodResolver_CancelledCallerDoesNotAffectOthers(t *testing.T) {
	client := NewMockNeighborhoodClient()
	entered, release := blockingNeighborhoods(client)
	resolver := newTestNeighborhoodResolver(client, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	gotA := make(chan domain.NeighborhoodInfo, 1)
	go func() { gotA <- resolver.ResolveByPostalCode(ctxA, "10014") }()
	<-entered

	gotB := make(chan domain.NeighborhoodInfo, 1)
	go func() { gotB <- resolver.ResolveByPostalCode(context.Background(), "10014") }()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.True(t, IsFallback(<-gotA), "a cancelled caller stops waiting")

	close(release)
	b := <-gotB
	assert.Equal(t, "gv", b.ID, "a live caller still gets the real neighborhood")
	assert.False(t, IsFallback(b))
	assert.Equal(t, 1, client.Calls("10014"))
}

func TestNeighborhoodResolver_SharedLookupTimeout(t *testing.T) {
	client := NewMockNeighborhoodClient()
	_, release := blockingNeighborhoods(client)
	defer close(release)

	resolver := NewNeighborhoodResolver(client, nil, NeighborhoodResolverConfig{
		DefaultCity:   "New York",
		DefaultState:  "NY",
		Retry:         RetryPolicy{Attempts: 1},
		LookupTimeout: 20 * time.Millisecond,
	}, nil)

	got := resolver.ResolveByPostalCode(context.Background(), "10014")

	assert.Equal(t, "mock-10014", got.ID)
}

func TestIsFallback(t *testing.T) {
	assert.True(t, IsFallback(FallbackNeighborhood("10001", "New York", "NY")))
	assert.False(t, IsFallback(domain.NeighborhoodInfo{ID: "42"}))
}
