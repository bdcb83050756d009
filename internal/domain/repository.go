package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded bytes so that memory and Redis backends behave the same.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// PlacesClient defines the interface for the external places directory
type PlacesClient interface {
	// Autocomplete returns ranked matches; an empty result is ErrPlaceNotFound.
	Autocomplete(ctx context.Context, input string) ([]PlaceMatch, error)
	GetDetails(ctx context.Context, placeID string) (*RawPlaceDetails, error)
}

// NeighborhoodClient defines the interface for the neighborhood directory
type NeighborhoodClient interface {
	// ByPostalCode returns the neighborhoods registered for a postal code;
	// a not-found answer is ErrNeighborhoodNotFound.
	ByPostalCode(ctx context.Context, postalCode string) ([]NeighborhoodInfo, error)
}

// SubmissionClient defines the interface for the bulk submission endpoint
type SubmissionClient interface {
	SubmitBatch(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error)
}
