package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetHealth(t *testing.T) {
	h := NewHandler()

	rec := httptest.NewRecorder()
	h.GetHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	h.SetHealthy(false)
	rec = httptest.NewRecorder()
	h.GetHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while draining, got %d", rec.Code)
	}
}

func TestGetReady(t *testing.T) {
	h := NewHandler(
		Check{Name: "redis", Probe: func(context.Context) error { return nil }},
		Check{Name: "postgres", Probe: func(context.Context) error { return errors.New("connection refused") }},
	)

	rec := httptest.NewRecorder()
	h.GetReady(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("a failing dependency should make the service unready, got %d", rec.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Checks["redis"] != "ok" || resp.Checks["postgres"] != "connection refused" {
		t.Fatalf("unexpected checks %v", resp.Checks)
	}
}
