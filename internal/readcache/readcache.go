// Package readcache implements the read-through side of the product cache.
package readcache

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/cachekey"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

// Store is satisfied by *cache.RedisClient.
type Store interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type ReadThrough struct {
	store   Store
	policy  cachekey.TTLPolicy
	metrics *metrics.Metrics
	logger  logger.ZapLogger
}

func New(store Store, policy cachekey.TTLPolicy, m *metrics.Metrics, log logger.ZapLogger) *ReadThrough {
	return &ReadThrough{store: store, policy: policy, metrics: m, logger: log}
}

// Fetch returns the cached value under key, or calls load and caches its
// result. Cache errors degrade to a miss; load errors are never cached.
func Fetch[T any](ctx context.Context, rt *ReadThrough, key cachekey.Key, load func(context.Context) (T, error)) (T, error) {
	if rt == nil || rt.store == nil {
		return load(ctx)
	}
	log := logger.FromContext(ctx, rt.logger)
	kind := key.Kind.String()

	var cached T
	hit, err := rt.store.GetJSON(ctx, key.String(), &cached)
	if err != nil {
		log.Warn("cache read failed, loading from store", zap.String("key", key.String()), zap.Error(err))
	}
	if hit && err == nil {
		rt.metrics.CacheHit(kind)
		return cached, nil
	}
	rt.metrics.CacheMiss(kind)

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if ttl := rt.policy.For(key.Kind); ttl > 0 {
		if err := rt.store.SetJSON(ctx, key.String(), value, ttl); err != nil {
			log.Warn("cache write failed", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return value, nil
}
