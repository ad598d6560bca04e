// Package cache provides caching implementations for usecase interfaces.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
)

const (
	// DefaultTTL is the lifetime of a cached classification outcome.
	DefaultTTL = 10 * time.Minute
	// DefaultUpstreamTimeout bounds a shared upstream call once it is detached from its callers.
	DefaultUpstreamTimeout = 30 * time.Second
)

// CachingClassifier decorates a Classifier with Redis caching keyed by the
// SHA-256 of the image bytes. Concurrent requests for the same image share a
// single upstream call. Failures are never cached, and cache errors never fail
// a classification.
//
// The shared upstream call is detached from every caller's cancellation, so a
// caller that gives up never fails the callers that joined the same flight.
type CachingClassifier struct {
	inner           usecase.Classifier
	rdb             *redis.Client
	ttl             time.Duration
	upstreamTimeout time.Duration
	namespace       string
	group           singleflight.Group
}

var _ usecase.Classifier = (*CachingClassifier)(nil)

// NewCachingClassifier decorates a Classifier with Redis caching.
// If ttl is 0, it defaults to 10 minutes. If namespace is empty, it uses "classification".
func NewCachingClassifier(rdb *redis.Client, ttl time.Duration, inner usecase.Classifier, namespace string) *CachingClassifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = "classification"
	}
	return &CachingClassifier{
		inner:           inner,
		rdb:             rdb,
		ttl:             ttl,
		upstreamTimeout: DefaultUpstreamTimeout,
		namespace:       namespace,
	}
}

// Classify returns a cached outcome for identical image bytes, falling back to the inner classifier.
func (c *CachingClassifier) Classify(ctx context.Context, filename string, data []byte) (*entity.ClassificationOutcome, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Classify(ctx, filename, data)
	}

	key := c.cacheKey(data)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.ClassificationOutcome
		if err := json.Unmarshal(b, &out); err == nil {
			slog.Debug("classification cache hit", "key", key)
			return &out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to the inference service, one call per key.
	// Each caller stops waiting on its own ctx; the flight itself only ends on upstreamTimeout.
	ch := c.group.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.upstreamTimeout)
		defer cancel()

		out, err := c.inner.Classify(flightCtx, filename, data)
		if err != nil {
			return nil, err
		}
		// 3) Store in cache (best effort)
		if b, err := json.Marshal(out); err == nil {
			_ = c.rdb.Set(flightCtx, key, b, c.ttl).Err()
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		return nil, entity.NewClassificationError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, entity.NewClassificationError(res.Err)
		}
		return cloneOutcome(res.Val.(*entity.ClassificationOutcome)), nil
	}
}

// cacheKey generates a content-addressed cache key.
func (c *CachingClassifier) cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", c.namespace, hex.EncodeToString(sum[:]))
}

// cloneOutcome copies an outcome shared between singleflight callers.
func cloneOutcome(in *entity.ClassificationOutcome) *entity.ClassificationOutcome {
	out := *in
	out.Result.Alternatives = append([]entity.Prediction(nil), in.Result.Alternatives...)
	out.Detections = append([]entity.Detection(nil), in.Detections...)
	if in.Dimensions != nil {
		dims := *in.Dimensions
		out.Dimensions = &dims
	}
	return &out
}
