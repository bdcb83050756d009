package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/platepicker/backend/internal/domain"
)

// fastRetry keeps retry tests in the millisecond range
var fastRetry = RetryPolicy{Attempts: 3, Delay: time.Millisecond}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string][]byte
	setError error
	sets     int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

// MockPlacesClient is a mock implementation of domain.PlacesClient
type MockPlacesClient struct {
	mu                sync.Mutex
	autocompleteFn    func(input string) ([]domain.PlaceMatch, error)
	detailsFn         func(placeID string) (*domain.RawPlaceDetails, error)
	autocompleteCalls map[string]int
	detailsCalls      map[string]int
}

func NewMockPlacesClient() *MockPlacesClient {
	return &MockPlacesClient{
		autocompleteCalls: make(map[string]int),
		detailsCalls:      make(map[string]int),
	}
}

func (m *MockPlacesClient) Autocomplete(ctx context.Context, input string) ([]domain.PlaceMatch, error) {
	m.mu.Lock()
	m.autocompleteCalls[input]++
	m.mu.Unlock()
	if m.autocompleteFn == nil {
		return nil, domain.ErrPlaceNotFound
	}
	return m.autocompleteFn(input)
}

func (m *MockPlacesClient) GetDetails(ctx context.Context, placeID string) (*domain.RawPlaceDetails, error) {
	m.mu.Lock()
	m.detailsCalls[placeID]++
	m.mu.Unlock()
	if m.detailsFn == nil {
		return nil, domain.ErrPlaceNotFound
	}
	return m.detailsFn(placeID)
}

func (m *MockPlacesClient) AutocompleteCalls(input string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autocompleteCalls[input]
}

func (m *MockPlacesClient) DetailsCalls(placeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detailsCalls[placeID]
}

// MockNeighborhoodClient is a mock implementation of domain.NeighborhoodClient
type MockNeighborhoodClient struct {
	mu     sync.Mutex
	fn     func(ctx context.Context, postalCode string) ([]domain.NeighborhoodInfo, error)
	calls  map[string]int
	byCode map[string][]domain.NeighborhoodInfo
}

func NewMockNeighborhoodClient() *MockNeighborhoodClient {
	return &MockNeighborhoodClient{
		calls:  make(map[string]int),
		byCode: make(map[string][]domain.NeighborhoodInfo),
	}
}

func (m *MockNeighborhoodClient) ByPostalCode(ctx context.Context, postalCode string) ([]domain.NeighborhoodInfo, error) {
	m.mu.Lock()
	m.calls[postalCode]++
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(ctx, postalCode)
	}
	if hoods, ok := m.byCode[postalCode]; ok {
		return hoods, nil
	}
	return nil, domain.ErrNeighborhoodNotFound
}

func (m *MockNeighborhoodClient) Calls(postalCode string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[postalCode]
}

// MockSubmissionClient is a mock implementation of domain.SubmissionClient
type MockSubmissionClient struct {
	mu       sync.Mutex
	fn       func(req *domain.SubmitRequest) (*domain.SubmitResponse, error)
	requests []*domain.SubmitRequest
}

func NewMockSubmissionClient() *MockSubmissionClient {
	return &MockSubmissionClient{}
}

func (m *MockSubmissionClient) SubmitBatch(ctx context.Context, req *domain.SubmitRequest) (*domain.SubmitResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.fn == nil {
		return acceptAll(req), nil
	}
	return m.fn(req)
}

func (m *MockSubmissionClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockSubmissionClient) LastRequest() *domain.SubmitRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

func boolPtr(b bool) *bool { return &b }

func acceptAll(req *domain.SubmitRequest) *domain.SubmitResponse {
	return &domain.SubmitResponse{Success: boolPtr(true), Added: len(req.Items)}
}
