package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/platepicker/backend/internal/domain"
	"github.com/platepicker/backend/pkg/logger"
)

const (
	fallbackIDPrefix   = "mock-"
	fallbackNameSuffix = " Area"

	// DefaultNeighborhoodLookupTimeout bounds one shared lookup, retries included
	DefaultNeighborhoodLookupTimeout = 30 * time.Second
)

// NeighborhoodResolverConfig holds configuration for neighborhood resolution
type NeighborhoodResolverConfig struct {
	DefaultCity  string
	DefaultState string
	Retry        RetryPolicy
	// CacheTTL controls how long genuine lookups stay cached. 0 disables caching.
	CacheTTL time.Duration
	// LookupTimeout bounds a lookup shared by concurrent callers
	LookupTimeout time.Duration
}

// NeighborhoodResolver maps postal codes to neighborhoods. It never fails:
// when the directory has no answer a deterministic placeholder is returned.
type NeighborhoodResolver struct {
	client        domain.NeighborhoodClient
	cache         domain.CacheRepository
	retry         RetryPolicy
	cacheTTL      time.Duration
	lookupTimeout time.Duration
	defaultCity   string
	defaultState  string
	group         singleflight.Group
	logger        *zap.Logger
}

// NewNeighborhoodResolver creates a new neighborhood resolver. cache may be nil.
func NewNeighborhoodResolver(client domain.NeighborhoodClient, cache domain.CacheRepository, config NeighborhoodResolverConfig, log *zap.Logger) *NeighborhoodResolver {
	lookupTimeout := config.LookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultNeighborhoodLookupTimeout
	}

	return &NeighborhoodResolver{
		client:        client,
		cache:         cache,
		retry:         config.Retry.withDefaults(),
		cacheTTL:      config.CacheTTL,
		lookupTimeout: lookupTimeout,
		defaultCity:   config.DefaultCity,
		defaultState:  config.DefaultState,
		logger:        logger.OrNop(log),
	}
}

// FallbackNeighborhood builds the placeholder used when no neighborhood is known
func FallbackNeighborhood(postalCode, city, state string) domain.NeighborhoodInfo {
	return domain.NeighborhoodInfo{
		ID:    fallbackIDPrefix + postalCode,
		Name:  postalCode + fallbackNameSuffix,
		City:  city,
		State: state,
	}
}

// IsFallback reports whether info is a placeholder rather than a real neighborhood
func IsFallback(info domain.NeighborhoodInfo) bool {
	return strings.HasPrefix(info.ID, fallbackIDPrefix)
}

// ResolveByPostalCode returns the first neighborhood registered for the postal
// code. A not-found answer falls back immediately; other failures are retried
// and fall back once the budget is spent.
//
// Concurrent lookups of the same code share one upstream call. The shared call
// is detached from every caller's cancellation and bounded by LookupTimeout, so
// one caller giving up never hands a placeholder to the others. A caller whose
// ctx is done stops waiting and gets the placeholder.
func (r *NeighborhoodResolver) ResolveByPostalCode(ctx context.Context, postalCode string) domain.NeighborhoodInfo {
	cacheKey := "neighborhood:" + postalCode
	if info, ok := r.fromCache(ctx, cacheKey); ok {
		return info
	}

	ch := r.group.DoChan(postalCode, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupTimeout)
		defer cancel()

		info, ok := r.lookup(lookupCtx, postalCode)
		if !ok {
			return FallbackNeighborhood(postalCode, r.defaultCity, r.defaultState), nil
		}
		r.toCache(lookupCtx, cacheKey, info)
		return info, nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.NeighborhoodInfo)
	case <-ctx.Done():
		return FallbackNeighborhood(postalCode, r.defaultCity, r.defaultState)
	}
}

func (r *NeighborhoodResolver) lookup(ctx context.Context, postalCode string) (domain.NeighborhoodInfo, bool) {
	var found domain.NeighborhoodInfo
	attempts, err := r.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		hoods, err := r.client.ByPostalCode(ctx, postalCode)
		if errors.Is(err, domain.ErrNeighborhoodNotFound) {
			return permanent(err)
		}
		if err != nil {
			r.logger.Debug("neighborhood lookup attempt failed",
				zap.String("postal_code", postalCode),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		if len(hoods) == 0 {
			return permanent(domain.ErrNeighborhoodNotFound)
		}
		found = hoods[0]
		return nil
	})

	switch {
	case err == nil:
		return found, true
	case errors.Is(err, domain.ErrNeighborhoodNotFound):
		r.logger.Debug("no neighborhood for postal code, using placeholder",
			zap.String("postal_code", postalCode))
	default:
		r.logger.Warn("neighborhood lookup exhausted retries, using placeholder",
			zap.String("postal_code", postalCode),
			zap.Int("attempts", attempts),
			zap.Error(err))
	}
	return domain.NeighborhoodInfo{}, false
}

func (r *NeighborhoodResolver) fromCache(ctx context.Context, key string) (domain.NeighborhoodInfo, bool) {
	if r.cache == nil || r.cacheTTL <= 0 {
		return domain.NeighborhoodInfo{}, false
	}
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		return domain.NeighborhoodInfo{}, false
	}
	var info domain.NeighborhoodInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return domain.NeighborhoodInfo{}, false
	}
	return info, true
}

func (r *NeighborhoodResolver) toCache(ctx context.Context, key string, info domain.NeighborhoodInfo) {
	if r.cache == nil || r.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
		r.logger.Warn("failed to cache neighborhood", zap.String("key", key), zap.Error(err))
	}
}
