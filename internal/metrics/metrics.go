// Package metrics holds the Prometheus collectors of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	StockTransitions     *prometheus.CounterVec
	RestockNotifications prometheus.Counter
	LowStockAlerts       prometheus.Counter
	StockConflicts       prometheus.Counter
	CacheLookups         *prometheus.CounterVec
	CacheKeysEvicted     prometheus.Counter
	InvalidationFailures prometheus.Counter
	OrderEvents          *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg under the given prefix.
func New(reg prometheus.Registerer, prefix string) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		StockTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_stock_transitions_total",
				Help: "Committed quantity changes by resulting stock state",
			},
			[]string{"state"},
		),
		RestockNotifications: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_restock_notifications_total",
			Help: "Back-in-stock notifications handed to the publisher",
		}),
		LowStockAlerts: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_low_stock_alerts_total",
			Help: "Low-stock notices handed to the publisher",
		}),
		StockConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_stock_version_conflicts_total",
			Help: "Optimistic version conflicts on quantity writes",
		}),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_cache_lookups_total",
				Help: "Read-path cache lookups by key class and result",
			},
			[]string{"kind", "result"},
		),
		CacheKeysEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_cache_keys_evicted_total",
			Help: "Cache keys removed by invalidation",
		}),
		InvalidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_cache_invalidation_failures_total",
			Help: "Cache invalidation steps that failed",
		}),
		OrderEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_order_events_total",
				Help: "Order events consumed by the fulfilment listener",
			},
			[]string{"event_type", "result"},
		),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

func (m *Metrics) ObserveTransition(state string) {
	if m == nil {
		return
	}
	m.StockTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) AddRestockNotifications(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RestockNotifications.Add(float64(n))
}

func (m *Metrics) IncLowStockAlert() {
	if m == nil {
		return
	}
	m.LowStockAlerts.Inc()
}

func (m *Metrics) IncStockConflict() {
	if m == nil {
		return
	}
	m.StockConflicts.Inc()
}

func (m *Metrics) CacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(kind, "hit").Inc()
}

func (m *Metrics) CacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(kind, "miss").Inc()
}

func (m *Metrics) AddKeysEvicted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.CacheKeysEvicted.Add(float64(n))
}

func (m *Metrics) IncInvalidationFailure() {
	if m == nil {
		return
	}
	m.InvalidationFailures.Inc()
}

func (m *Metrics) ObserveOrderEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.OrderEvents.WithLabelValues(eventType, result).Inc()
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			statusStr := strconv.Itoa(status)
			method := c.Request().Method
			path := c.Path()

			m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler exposes the registry the metrics were registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
