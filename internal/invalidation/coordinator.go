// Package invalidation evicts the cache keys that depend on a product after
// a committed mutation.
package invalidation

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/cachekey"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

// Store is the subset of the cache layer the coordinator needs.
type Store interface {
	Delete(ctx context.Context, keys ...string) (int64, error)
	DeletePattern(ctx context.Context, pattern string) (int64, error)
}

// Invalidator is what mutating use cases depend on.
type Invalidator interface {
	Invalidate(ctx context.Context, productID *string) Report
}

// Report describes one invalidation pass. Errors are informational only.
type Report struct {
	Evicted int64
	Steps   int
	Errors  []error
}

func (r Report) Failed() bool { return len(r.Errors) > 0 }

type Coordinator struct {
	store   Store
	metrics *metrics.Metrics
	logger  logger.ZapLogger
}

func NewCoordinator(store Store, m *metrics.Metrics, log logger.ZapLogger) *Coordinator {
	return &Coordinator{store: store, metrics: m, logger: log}
}

// Invalidate evicts everything dependent on productID, or only the shared
// listings when productID is nil. Steps run sequentially and a failing step
// does not stop the remaining ones.
func (c *Coordinator) Invalidate(ctx context.Context, productID *string) Report {
	var report Report

	keys, patterns := cachekey.Shared()
	if productID != nil && *productID != "" {
		keys = append([]string{cachekey.Product(*productID).String()}, keys...)
		patterns = append([]string{cachekey.RelatedPattern(*productID)}, patterns...)
	}

	for _, key := range keys {
		n, err := c.store.Delete(ctx, key)
		c.record(ctx, &report, key, n, err)
	}
	for _, pattern := range patterns {
		n, err := c.store.DeletePattern(ctx, pattern)
		c.record(ctx, &report, pattern, n, err)
	}

	c.metrics.AddKeysEvicted(report.Evicted)
	return report
}

func (c *Coordinator) record(ctx context.Context, report *Report, target string, n int64, err error) {
	report.Steps++
	if err == nil {
		report.Evicted += n
		return
	}

	err = fmt.Errorf("%w: evict %s: %v", apperr.ErrCacheUnavailable, target, err)
	report.Errors = append(report.Errors, err)
	c.metrics.IncInvalidationFailure()
	logger.FromContext(ctx, c.logger).Warn("cache invalidation failed",
		zap.String("target", target),
		zap.Error(err),
	)
}
