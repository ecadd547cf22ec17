package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	jobmetrics "github.com/thriftstock/thriftstock/internal/jobs"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("refdata:refresh").End(nil)
	_ = jobs.Track("refdata:refresh").End(errors.New("backend down"))

	body := scrape(t, metrics)
	if !strings.Contains(body, `thriftstock_jobs_total{job="refdata:refresh",status="success"} 1`) {
		t.Fatalf("expected success count, got: %s", body)
	}
	if !strings.Contains(body, `thriftstock_jobs_failures_total{job="refdata:refresh"} 1`) {
		t.Fatalf("expected failure count, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/items/{id}")

	req := httptest.NewRequest(http.MethodGet, "/items/4", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `thriftstock_http_requests_total{code="418",route="/items/{id}"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `thriftstock_http_request_duration_seconds_bucket{route="/items/{id}"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestBackendAndRefdataObservers(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveBackendCall(http.MethodGet, "/items/{id}", "ok", 15*time.Millisecond)
	metrics.ObserveBackendCall(http.MethodGet, "/items/{id}", "4xx", 5*time.Millisecond)
	metrics.ObserveRefdataLoad("error", time.Second)

	body := scrape(t, metrics)
	for _, want := range []string{
		`thriftstock_backend_requests_total{endpoint="/items/{id}",method="GET",outcome="ok"} 1`,
		`thriftstock_backend_requests_total{endpoint="/items/{id}",method="GET",outcome="4xx"} 1`,
		`thriftstock_refdata_loads_total{result="error"} 1`,
		`thriftstock_refdata_load_duration_seconds_count 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in: %s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveBackendCall(http.MethodGet, "/health", "ok", time.Millisecond)
	metrics.ObserveRefdataLoad("ok", time.Millisecond)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
}
