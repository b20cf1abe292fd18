package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/salon/salon/pkg/apierror"
)

// requestCount returns the observation count recorded for a route and status.
func requestCount(t *testing.T, method, path, status string) uint64 {
	t.Helper()
	fams, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, fam := range fams {
		if fam.GetName() != "salon_http_request_duration_seconds" {
			continue
		}
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["method"] == method && labels["path"] == path && labels["status"] == status {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()
}

func TestMiddleware_StatusLabels(t *testing.T) {
	Register()

	e := echo.New()
	e.Use(Middleware())
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/missing", func(c echo.Context) error { return apierror.NotFound("booking not found") })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := requestCount(t, "GET", "/ok", "204"); got != 1 {
		t.Errorf("count for /ok status 204 = %d, want 1", got)
	}
	if got := requestCount(t, "GET", "/missing", "404"); got != 1 {
		t.Errorf("count for /missing status 404 = %d, want 1", got)
	}
	if got := requestCount(t, "GET", "/boom", "500"); got != 1 {
		t.Errorf("count for /boom status 500 = %d, want 1", got)
	}
}
