package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mwolter/workspace-mcp/internal/auth"
	"github.com/mwolter/workspace-mcp/internal/google"
)

func newTestContext(t *testing.T) *ServerContext {
	t.Helper()
	sc := NewServerContext(context.Background(), Options{
		Config: google.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURI:  "http://localhost:8080",
		},
		TokenPath: filepath.Join(t.TempDir(), "token.json"),
	})
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(newTestContext(t))

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Status != healthStatusOK {
		t.Errorf("status = %q, want %q", resp.Status, healthStatusOK)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	sc := newTestContext(t)
	h := NewHealthChecker(sc)

	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want %d", rec.Code, http.StatusOK)
	}

	h.SetReady(false)
	rec = httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("not-ready status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	h.SetReady(true)
	if err := sc.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	rec = httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("shutdown status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestServerContext_ShutdownIdempotent(t *testing.T) {
	sc := newTestContext(t)

	if sc.IsShutdown() {
		t.Error("new context should not be shut down")
	}
	if err := sc.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := sc.Shutdown(); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}
	if !sc.IsShutdown() {
		t.Error("context should report shut down")
	}
	if sc.Context().Err() == nil {
		t.Error("context should be cancelled after shutdown")
	}
}

func TestServerContext_ClientsRequireAuth(t *testing.T) {
	sc := newTestContext(t)
	ctx := context.Background()

	if _, err := sc.GmailClient(ctx); !errors.Is(err, auth.ErrAuthRequired) {
		t.Errorf("GmailClient() error = %v, want ErrAuthRequired", err)
	}
	if _, err := sc.DriveClient(ctx); !errors.Is(err, auth.ErrAuthRequired) {
		t.Errorf("DriveClient() error = %v, want ErrAuthRequired", err)
	}
	if _, err := sc.CalendarClient(ctx); !errors.Is(err, auth.ErrAuthRequired) {
		t.Errorf("CalendarClient() error = %v, want ErrAuthRequired", err)
	}
	if _, err := sc.ContactsClient(ctx); !errors.Is(err, auth.ErrAuthRequired) {
		t.Errorf("ContactsClient() error = %v, want ErrAuthRequired", err)
	}
}

func TestServerContext_Wiring(t *testing.T) {
	sc := newTestContext(t)

	if sc.Gateway() == nil {
		t.Error("Gateway() should not be nil")
	}
	if sc.Resolver() == nil {
		t.Error("Resolver() should not be nil")
	}
	if sc.Metrics() == nil {
		t.Error("Metrics() should not be nil")
	}
	if sc.AuditLog() == nil {
		t.Error("AuditLog() should not be nil")
	}
	if sc.AuthStore() == nil {
		t.Error("AuthStore() should not be nil")
	}
	if sc.Yolo() {
		t.Error("Yolo() should default to false")
	}
}
