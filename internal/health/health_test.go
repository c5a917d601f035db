package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func TestCheckReportsEachDependency(t *testing.T) {
	c := NewChecker(time.Second, logger.NewNop())
	c.Register("postgres", ok)
	c.Register("redis", failing)

	report := c.Check(context.Background())
	if report.Healthy() {
		t.Fatalf("expected down when one dependency fails")
	}
	if report.Checks["postgres"] != StatusUp || report.Checks["redis"] != StatusDown {
		t.Fatalf("unexpected checks %v", report.Checks)
	}
}

func TestCheckTimesOut(t *testing.T) {
	c := NewChecker(20*time.Millisecond, logger.NewNop())
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	if c.Check(context.Background()).Healthy() {
		t.Fatalf("expected slow dependency to be down")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestHandlerStatusCodes(t *testing.T) {
	for _, tc := range []struct {
		ping PingFunc
		want int
	}{
		{ok, http.StatusOK},
		{failing, http.StatusServiceUnavailable},
	} {
		c := NewChecker(time.Second, logger.NewNop())
		c.Register("postgres", tc.ping)

		e := echo.New()
		rr := httptest.NewRecorder()
		if err := c.Handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rr)); err != nil {
			t.Fatalf("handler: %v", err)
		}
		if rr.Code != tc.want {
			t.Fatalf("expected %d, got %d", tc.want, rr.Code)
		}
		var report Report
		if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil || report.Checks["postgres"] == "" {
			t.Fatalf("unexpected body %s", rr.Body.String())
		}
	}
}

func TestWatchUpdatesGRPCStatus(t *testing.T) {
	c := NewChecker(time.Second, logger.NewNop())
	c.Register("redis", failing)
	server := health.NewServer()

	c.update(context.Background(), server)
	res, err := server.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %v", res.Status)
	}

	c.Register("redis", ok)
	c.update(context.Background(), server)
	res, _ = server.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if res.Status != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", res.Status)
	}
}
