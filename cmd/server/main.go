package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/platepicker/backend/config"
	httpDelivery "github.com/platepicker/backend/internal/delivery/http"
	"github.com/platepicker/backend/internal/domain"
	"github.com/platepicker/backend/internal/infrastructure/cache"
	"github.com/platepicker/backend/internal/infrastructure/neighborhoods"
	"github.com/platepicker/backend/internal/infrastructure/places"
	"github.com/platepicker/backend/internal/infrastructure/submission"
	"github.com/platepicker/backend/internal/usecase"
	"github.com/platepicker/backend/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("Starting PlatePicker backend v1.0.0",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
		zap.Int("workers", cfg.Pipeline.Workers))

	store, closeStore, err := newCache(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer closeStore()

	if cfg.Places.APIKey == "" {
		zl.Warn("places API key not configured, lookups may be rejected upstream",
			zap.String("base_url", cfg.Places.BaseURL))
	}

	placesClient := places.NewClient(places.Options{
		APIKey:            cfg.Places.APIKey,
		BaseURL:           cfg.Places.BaseURL,
		Timeout:           cfg.Places.Timeout,
		RequestsPerSecond: cfg.RateLimit.Places,
		Logger:            zl.Named("places"),
	})
	neighborhoodClient := neighborhoods.NewClient(neighborhoods.Options{
		BaseURL:           cfg.Neighborhoods.BaseURL,
		Timeout:           cfg.Neighborhoods.Timeout,
		RequestsPerSecond: cfg.RateLimit.Neighborhoods,
		Logger:            zl.Named("neighborhoods"),
	})
	submissionClient := submission.NewClient(submission.Options{
		URL:       cfg.Submission.URL,
		AuthToken: cfg.Submission.AuthToken,
		Timeout:   cfg.Submission.Timeout,
		Logger:    zl.Named("submission"),
	})

	retry := usecase.RetryPolicy{
		Attempts: cfg.Pipeline.RetryAttempts,
		Delay:    cfg.Pipeline.RetryDelay,
	}

	duplicatePolicy, err := usecase.ParseDuplicatePolicy(cfg.Duplicates.Policy)
	if err != nil {
		zl.Fatal("Invalid duplicate policy", zap.Error(err))
	}

	pipeline := usecase.NewPipeline(
		usecase.NewDuplicateDetector(usecase.DuplicateDetectorConfig{
			FoldAccents:      cfg.Duplicates.FoldAccents,
			FuzzyMaxDistance: cfg.Duplicates.FuzzyMaxDistance,
		}),
		usecase.NewPlaceResolver(placesClient, store, usecase.PlaceResolverConfig{
			Retry:           retry,
			DetailsCacheTTL: cfg.Cache.TTL,
		}, zl.Named("resolver")),
		usecase.NewAddressNormalizer(),
		usecase.NewNeighborhoodResolver(neighborhoodClient, store, usecase.NeighborhoodResolverConfig{
			DefaultCity:   cfg.Pipeline.DefaultCity,
			DefaultState:  cfg.Pipeline.DefaultState,
			Retry:         retry,
			CacheTTL:      cfg.Cache.TTL,
			// every attempt may run to the client timeout, plus the pauses between them
			LookupTimeout: time.Duration(cfg.Pipeline.RetryAttempts) * (cfg.Neighborhoods.Timeout + cfg.Pipeline.RetryDelay),
		}, zl.Named("neighborhoods")),
		usecase.NewBatchSubmitter(submissionClient, zl.Named("submitter")),
		usecase.PipelineConfig{
			Workers:         cfg.Pipeline.Workers,
			RunTimeout:      cfg.Pipeline.RunTimeout,
			SubmitTimeout:   cfg.Submission.Timeout,
			DuplicatePolicy: duplicatePolicy,
		},
		zl.Named("pipeline"),
	)

	handler := httpDelivery.NewHandler(pipeline, zl)
	router := httpDelivery.SetupRouter(cfg, handler, zl.Named("http"))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zl.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zl.Error("Server shutdown failed", zap.Error(err))
	}
}

// newCache builds the configured cache backend and its close function
func newCache(cfg *config.Config, zl *zap.Logger) (domain.CacheRepository, func(), error) {
	if cfg.Cache.Type == "redis" {
		rc, err := cache.NewRedisCache(context.Background(), cfg.Cache.RedisURL, zl.Named("cache"))
		if err != nil {
			return nil, nil, err
		}
		return rc, func() {
			if err := rc.Close(); err != nil {
				zl.Warn("Failed to close Redis cache", zap.Error(err))
			}
		}, nil
	}

	mc, err := cache.NewMemoryCache(cfg.Cache.Size)
	if err != nil {
		return nil, nil, err
	}
	zl.Info("Using in-memory cache", zap.Int("size", cfg.Cache.Size), zap.Duration("ttl", cfg.Cache.TTL))
	return mc, func() {}, nil
}
