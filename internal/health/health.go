// Package health reports whether the service's dependencies are reachable,
// over HTTP and through the standard gRPC health service.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	StatusUp   = "up"
	StatusDown = "down"
)

// PingFunc adapts db.PingContext and similar.
type PingFunc func(ctx context.Context) error

type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (r Report) Healthy() bool { return r.Status == StatusUp }

type Checker struct {
	mu      sync.RWMutex
	checks  map[string]PingFunc
	timeout time.Duration
	logger  logger.ZapLogger
}

func NewChecker(timeout time.Duration, log logger.ZapLogger) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{checks: map[string]PingFunc{}, timeout: timeout, logger: log}
}

func (c *Checker) Register(name string, ping PingFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = ping
}

// Check pings every dependency concurrently, each under the checker timeout.
func (c *Checker) Check(ctx context.Context) Report {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		c.mu.RLock()
		ping := c.checks[name]
		c.mu.RUnlock()

		wg.Add(1)
		go func(i int, name string, ping PingFunc) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			if err := ping(pctx); err != nil {
				c.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				results[i] = StatusDown
				return
			}
			results[i] = StatusUp
		}(i, name, ping)
	}
	wg.Wait()

	report := Report{Status: StatusUp, Checks: make(map[string]string, len(names))}
	for i, name := range names {
		report.Checks[name] = results[i]
		if results[i] != StatusUp {
			report.Status = StatusDown
		}
	}
	return report
}

// Handler serves GET /health: 200 when every dependency is up, 503 otherwise.
func (c *Checker) Handler(ctx echo.Context) error {
	report := c.Check(ctx.Request().Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	return ctx.JSON(status, report)
}

// Watch keeps the gRPC health server in step with the checker until ctx ends.
func (c *Checker) Watch(ctx context.Context, server *health.Server, interval time.Duration) {
	c.update(ctx, server)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			server.Shutdown()
			return
		case <-ticker.C:
			c.update(ctx, server)
		}
	}
}

func (c *Checker) update(ctx context.Context, server *health.Server) {
	status := healthpb.HealthCheckResponse_SERVING
	if !c.Check(ctx).Healthy() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	server.SetServingStatus("", status)
}
