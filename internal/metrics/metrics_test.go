package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveTransition("IN_STOCK")
	m.AddRestockNotifications(3)
	m.IncLowStockAlert()
	m.CacheHit("product")
	m.AddKeysEvicted(2)
	m.IncInvalidationFailure()
	m.ObserveOrderEvent("OrderCreated", "applied")
}

func TestDomainCounters(t *testing.T) {
	m := New(prometheus.NewRegistry(), "stock")

	m.ObserveTransition("LOW_STOCK")
	m.ObserveTransition("LOW_STOCK")
	m.AddRestockNotifications(2)
	m.AddRestockNotifications(0)
	m.CacheMiss("product")
	m.AddKeysEvicted(5)

	if got := testutil.ToFloat64(m.StockTransitions.WithLabelValues("LOW_STOCK")); got != 2 {
		t.Fatalf("transitions = %v", got)
	}
	if got := testutil.ToFloat64(m.RestockNotifications); got != 2 {
		t.Fatalf("restock notifications = %v", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("product", "miss")); got != 1 {
		t.Fatalf("cache misses = %v", got)
	}
	if got := testutil.ToFloat64(m.CacheKeysEvicted); got != 5 {
		t.Fatalf("evicted = %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New(prometheus.NewRegistry(), "stock")
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/products/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/42", nil))

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/products/:id", "204")); got != 1 {
		t.Fatalf("requests = %v", got)
	}

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "stock_http_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}
}
