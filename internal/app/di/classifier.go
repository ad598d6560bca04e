// Package di provides dependency injection factories for creating application components.
package di

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"mri_diagnosis/internal/feature/diagnosis/adapters/inference"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
	"mri_diagnosis/internal/platform/cache"
	infrahttp "mri_diagnosis/internal/platform/http"
)

// ErrInferenceNotConfigured is returned when INFERENCE_URL is not set.
var ErrInferenceNotConfigured = errors.New("INFERENCE_URL is not set")

// NewClassifier creates the classification chain:
// inference client, optional rate limiter, optional Redis cache.
func NewClassifier(cfg inference.Config, rdb *redis.Client) (usecase.Classifier, error) {
	if cfg.URL == "" {
		return nil, ErrInferenceNotConfigured
	}

	var c usecase.Classifier = inference.NewClient(cfg, infrahttp.NewHTTPClient(cfg.Timeout))
	if cfg.RateLimit > 0 {
		c = inference.NewRateLimitedClassifier(c, cfg.RateLimit)
		slog.Info("classification rate limit enabled", "per_minute", cfg.RateLimit)
	}
	if rdb != nil {
		ttl, err := cacheTTL()
		if err != nil {
			return nil, err
		}
		c = cache.NewCachingClassifier(rdb, ttl, c, "classification")
		slog.Info("classification cache enabled", "ttl", ttl)
	}
	return c, nil
}

func cacheTTL() (time.Duration, error) {
	v := os.Getenv("CLASSIFICATION_CACHE_TTL")
	if v == "" {
		return cache.DefaultTTL, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid CLASSIFICATION_CACHE_TTL %q", v)
	}
	return d, nil
}
