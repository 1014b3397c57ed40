package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deppfellow/hbnb-api/internal/config"
	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/labstack/echo/v4"
)

func TestServeOpenAPIUI(t *testing.T) {
	page := filepath.Join(t.TempDir(), "openapi.html")
	err := os.WriteFile(page, []byte(`<title>{{.Title}}</title><script data-url="{{.SpecURL}}"></script>`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{Observability: config.DefaultObservabilityConfig()}
	cfg.Observability.Environment = "local"
	h := NewOpenAPIHandler(&server.Server{Config: cfg})
	h.pagePath = page

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/docs", nil), rec)
	if err := h.ServeOpenAPIUI(c); err != nil {
		t.Fatalf("ServeOpenAPIUI: %v", err)
	}

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(body, "HBnB API Reference (local)") {
		t.Errorf("title missing from %q", body)
	}
	if !strings.Contains(body, `data-url="/static/openapi.json"`) {
		t.Errorf("spec url missing from %q", body)
	}
	if rec.Header().Get("Cache-Control") != "no-cache" {
		t.Error("page is cacheable")
	}
}

func TestServeOpenAPIUIMissingPage(t *testing.T) {
	h := NewOpenAPIHandler(&server.Server{Config: &config.Config{}})
	h.pagePath = filepath.Join(t.TempDir(), "missing.html")

	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/docs", nil), httptest.NewRecorder())
	if err := h.ServeOpenAPIUI(c); err == nil {
		t.Fatal("expected an error for a missing page")
	}
}
