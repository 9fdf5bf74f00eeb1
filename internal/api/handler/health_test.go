package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type stubPinger struct {
	name string
	err  error
}

func (p stubPinger) Name() string { return p.name }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func TestHealthHandler_Readiness(t *testing.T) {
	e := echo.New()

	h := NewHealthHandler(stubPinger{name: "mongo"}, stubPinger{name: "redis", err: errors.New("connection refused")})
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["mongo"].Status != "ok" || resp.Dependencies["redis"].Status != "unhealthy" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestHealthHandler_NoDependencies(t *testing.T) {
	e := echo.New()
	h := NewHealthHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	if err := h.Liveness(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("liveness failed: %v %d", err, rec.Code)
	}
}
