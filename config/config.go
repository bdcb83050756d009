package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Places        PlacesConfig
	Neighborhoods NeighborhoodsConfig
	Submission    SubmissionConfig
	Pipeline      PipelineConfig
	Duplicates    DuplicatesConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
	Log           LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PlacesConfig holds places directory API configuration
type PlacesConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NeighborhoodsConfig holds neighborhood directory API configuration
type NeighborhoodsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SubmissionConfig holds bulk submission endpoint configuration
type SubmissionConfig struct {
	URL       string        `mapstructure:"url"`
	AuthToken string        `mapstructure:"auth_token"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// PipelineConfig holds batch processing configuration
type PipelineConfig struct {
	Workers       int           `mapstructure:"workers"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	RunTimeout    time.Duration `mapstructure:"run_timeout"`
	DefaultCity   string        `mapstructure:"default_city"`
	DefaultState  string        `mapstructure:"default_state"`
}

// DuplicatesConfig holds duplicate detection configuration
type DuplicatesConfig struct {
	Policy           string `mapstructure:"policy"` // "annotate" or "skip"
	FoldAccents      bool   `mapstructure:"fold_accents"`
	FuzzyMaxDistance int    `mapstructure:"fuzzy_max_distance"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
	Size     int           `mapstructure:"size"`
}

// RateLimitConfig holds upstream rate limiting configuration (requests per second)
type RateLimitConfig struct {
	Places        float64 `mapstructure:"places"`
	Neighborhoods float64 `mapstructure:"neighborhoods"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/platepicker/")

	// PLATEPICKER_PIPELINE_WORKERS -> pipeline.workers
	v.SetEnvPrefix("PLATEPICKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("places.api_key", "")
	v.SetDefault("places.base_url", "http://localhost:5001/api/places")
	v.SetDefault("places.timeout", "15s")

	v.SetDefault("neighborhoods.base_url", "http://localhost:5001/api/neighborhoods")
	v.SetDefault("neighborhoods.timeout", "10s")

	v.SetDefault("submission.url", "http://localhost:5001/api/restaurants/bulk-add")
	v.SetDefault("submission.auth_token", "")
	v.SetDefault("submission.timeout", "60s")

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.retry_attempts", 3)
	v.SetDefault("pipeline.retry_delay", "1s")
	v.SetDefault("pipeline.run_timeout", "10m")
	v.SetDefault("pipeline.default_city", "New York")
	v.SetDefault("pipeline.default_state", "NY")

	v.SetDefault("duplicates.policy", "annotate")
	v.SetDefault("duplicates.fold_accents", false)
	v.SetDefault("duplicates.fuzzy_max_distance", 0)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.size", 10000)

	v.SetDefault("ratelimit.places", 10.0)
	v.SetDefault("ratelimit.neighborhoods", 10.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", true)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Places.BaseURL == "" {
		return fmt.Errorf("places base URL is required (set PLATEPICKER_PLACES_BASE_URL)")
	}

	if config.Neighborhoods.BaseURL == "" {
		return fmt.Errorf("neighborhoods base URL is required (set PLATEPICKER_NEIGHBORHOODS_BASE_URL)")
	}

	if config.Submission.URL == "" {
		return fmt.Errorf("submission URL is required (set PLATEPICKER_SUBMISSION_URL)")
	}

	if config.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1, got: %d", config.Pipeline.Workers)
	}

	if config.Pipeline.RetryAttempts < 1 {
		return fmt.Errorf("pipeline retry attempts must be at least 1, got: %d", config.Pipeline.RetryAttempts)
	}

	config.Duplicates.Policy = strings.ToLower(strings.TrimSpace(config.Duplicates.Policy))
	if config.Duplicates.Policy != "annotate" && config.Duplicates.Policy != "skip" {
		return fmt.Errorf("duplicate policy must be 'annotate' or 'skip', got: %s", config.Duplicates.Policy)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	return nil
}
