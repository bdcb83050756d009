package usecase

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/platepicker/backend/internal/domain"
	"github.com/platepicker/backend/pkg/logger"
)

// PlaceResolverConfig holds configuration for place resolution
type PlaceResolverConfig struct {
	Retry RetryPolicy
	// DetailsCacheTTL controls how long place details stay cached. 0 disables caching.
	DetailsCacheTTL time.Duration
}

// PlaceResolver matches candidates against the external places directory
type PlaceResolver struct {
	client   domain.PlacesClient
	cache    domain.CacheRepository
	retry    RetryPolicy
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewPlaceResolver creates a new place resolver. cache may be nil.
func NewPlaceResolver(client domain.PlacesClient, cache domain.CacheRepository, config PlaceResolverConfig, log *zap.Logger) *PlaceResolver {
	return &PlaceResolver{
		client:   client,
		cache:    cache,
		retry:    config.Retry.withDefaults(),
		cacheTTL: config.DetailsCacheTTL,
		logger:   logger.OrNop(log),
	}
}

// BuildPlaceQuery formats the autocomplete input for a candidate
func BuildPlaceQuery(c domain.CandidateRecord) string {
	if c.LocationHint == "" {
		return c.Name
	}
	return c.Name + ", " + c.LocationHint
}

// Resolve looks the candidate up in the places directory. Any failure,
// including an empty match list, is retried within the budget; once the
// budget is spent the result carries status error and the last failure.
// With several matches the first (highest ranked) is selected and the full
// list is kept.
func (r *PlaceResolver) Resolve(ctx context.Context, c domain.CandidateRecord) domain.ResolvedPlace {
	query := BuildPlaceQuery(c)

	var matches []domain.PlaceMatch
	attempts, err := r.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		m, err := r.client.Autocomplete(ctx, query)
		if err != nil {
			r.logger.Debug("place lookup attempt failed",
				zap.Int("line", c.LineNumber),
				zap.String("query", query),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		if len(m) == 0 {
			return domain.ErrPlaceNotFound
		}
		matches = m
		return nil
	})

	if err != nil {
		r.logger.Warn("place lookup exhausted retries",
			zap.Int("line", c.LineNumber),
			zap.String("query", query),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return domain.ResolvedPlace{
			Status:      domain.ResolveError,
			ErrorDetail: err.Error(),
			Attempts:    attempts,
		}
	}

	status := domain.ResolveSingle
	if len(matches) > 1 {
		status = domain.ResolveMultiple
	}

	return domain.ResolvedPlace{
		Status:     status,
		PlaceID:    matches[0].PlaceID,
		Candidates: matches,
		Attempts:   attempts,
	}
}

// Details fetches the place-details payload for placeID with the same retry
// budget as Resolve. Successful payloads are cached by place id.
func (r *PlaceResolver) Details(ctx context.Context, placeID string) (*domain.RawPlaceDetails, error) {
	cacheKey := "place-details:" + placeID
	if cached, ok := r.fromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	var details *domain.RawPlaceDetails
	_, err := r.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		d, err := r.client.GetDetails(ctx, placeID)
		if err != nil {
			r.logger.Debug("place details attempt failed",
				zap.String("place_id", placeID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		details = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.toCache(ctx, cacheKey, details)
	return details, nil
}

func (r *PlaceResolver) fromCache(ctx context.Context, key string) (*domain.RawPlaceDetails, bool) {
	if r.cache == nil || r.cacheTTL <= 0 {
		return nil, false
	}
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var details domain.RawPlaceDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, false
	}
	return &details, true
}

func (r *PlaceResolver) toCache(ctx context.Context, key string, details *domain.RawPlaceDetails) {
	if r.cache == nil || r.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(details)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
		r.logger.Warn("failed to cache place details", zap.String("key", key), zap.Error(err))
	}
}
