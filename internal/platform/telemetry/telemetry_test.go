package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestMiddleware_CountsRequests(t *testing.T) {
	m := New("clinic")
	e := echo.New()

	handler := m.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/dashboard")
		if err := handler(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Scrape and check the counter shows up.
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := m.Handler()(c); err != nil {
		t.Fatalf("metrics handler error: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "clinic_http_requests_total") {
		t.Error("expected clinic_http_requests_total in scrape output")
	}
	if !strings.Contains(body, `route="/dashboard"`) {
		t.Error("expected /dashboard route label in scrape output")
	}
}

func TestMiddleware_RecordsErrorStatus(t *testing.T) {
	m := New("clinic")
	e := echo.New()

	handler := m.Middleware()(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})

	req := httptest.NewRequest(http.MethodGet, "/patient/xyz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/patient/:id")
	_ = handler(c)

	req2 := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req2, rec2)
	if err := m.Handler()(c2); err != nil {
		t.Fatalf("metrics handler error: %v", err)
	}

	if !strings.Contains(rec2.Body.String(), `status="404"`) {
		t.Error("expected 404 status label in scrape output")
	}
}
