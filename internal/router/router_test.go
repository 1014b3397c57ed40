package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/hbnb-api/internal/config"
	"github.com/deppfellow/hbnb-api/internal/handler"
	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/deppfellow/hbnb-api/internal/repository"
	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/deppfellow/hbnb-api/internal/service"
	"github.com/deppfellow/hbnb-api/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()

	logger := zerolog.Nop()
	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:               "0",
			CORSAllowedOrigins: []string{"*"},
			BodyLimit:          "1M",
		},
		Storage:       config.StorageConfig{Engine: config.EngineMemory},
		Observability: config.DefaultObservabilityConfig(),
	}

	store, err := storage.Open(cfg.Storage, storage.Deps{Logger: &logger})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	b := func(id string) model.Base { return model.Base{ID: id, CreatedAt: now, UpdatedAt: now} }
	ctx := context.Background()
	for _, e := range []model.Entity{
		&model.State{Base: b("s1"), Name: "California"},
		&model.City{Base: b("c1"), StateID: "s1", Name: "San Francisco"},
		&model.User{Base: b("u1"), Email: "betty@hbnb.io", Password: "pwd", FirstName: "Betty"},
		&model.Place{Base: b("p1"), CityID: "c1", UserID: "u1", Name: "Loft"},
		&model.Review{Base: b("r1"), PlaceID: "p1", UserID: "u1", Text: "nice"},
	} {
		if err := store.New(ctx, e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := store.Save(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := &server.Server{Config: cfg, Logger: &logger, Store: store}
	services, err := service.NewService(s, repository.NewRepositories(s))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewRouter(s, handler.NewHandlers(s, services))
}

func do(t *testing.T, r *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCreateReviewScenario(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/places/p1/reviews", `{"user_id":"u1","text":"great"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	got := decode(t, rec)
	if got["place_id"] != "p1" || got["user_id"] != "u1" || got["text"] != "great" {
		t.Errorf("body = %v", got)
	}
	id, _ := got["id"].(string)
	if id == "" {
		t.Fatal("no id generated")
	}

	rec = do(t, r, http.MethodGet, "/api/v1/reviews/"+id, "")
	if rec.Code != http.StatusOK || decode(t, rec)["id"] != id {
		t.Errorf("get created review: %d %s", rec.Code, rec.Body)
	}
}

func TestUpdateReviewScenario(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPut, "/api/v1/reviews/r1", `{"text":"updated","id":"other"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := decode(t, rec)
	if got["id"] != "r1" || got["text"] != "updated" {
		t.Errorf("body = %v", got)
	}

	if rec := do(t, r, http.MethodGet, "/api/v1/reviews/other", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /reviews/other = %d, want 404", rec.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		code    string
		message string
	}{
		{"get missing", http.MethodGet, "/api/v1/reviews/nope", "", http.StatusNotFound, "NOT_FOUND", "Review not found"},
		{"update missing", http.MethodPut, "/api/v1/reviews/nope", `{"text":"x"}`, http.StatusNotFound, "NOT_FOUND", ""},
		{"delete missing", http.MethodDelete, "/api/v1/reviews/nope", "", http.StatusNotFound, "NOT_FOUND", ""},
		{"children of missing place", http.MethodGet, "/api/v1/places/nope/reviews", "", http.StatusNotFound, "NOT_FOUND", "Place not found"},
		{"create under missing place", http.MethodPost, "/api/v1/places/nope/reviews", `{"user_id":"u1","text":"x"}`, http.StatusNotFound, "NOT_FOUND", "Place not found"},
		{"not json", http.MethodPost, "/api/v1/places/p1/reviews", `text=great`, http.StatusBadRequest, "NOT_A_JSON", "Not a JSON"},
		{"update not json", http.MethodPut, "/api/v1/reviews/r1", `[]`, http.StatusBadRequest, "NOT_A_JSON", "Not a JSON"},
		{"missing user_id", http.MethodPost, "/api/v1/places/p1/reviews", `{"text":"x"}`, http.StatusBadRequest, "MISSING_FIELD", "Missing user_id"},
		{"unknown user", http.MethodPost, "/api/v1/places/p1/reviews", `{"user_id":"ghost","text":"x"}`, http.StatusNotFound, "NOT_FOUND", "User not found"},
		{"missing text", http.MethodPost, "/api/v1/places/p1/reviews", `{"user_id":"u1"}`, http.StatusBadRequest, "MISSING_FIELD", "Missing text"},
		{"missing state name", http.MethodPost, "/api/v1/states", `{"capital":"x"}`, http.StatusBadRequest, "MISSING_FIELD", "Missing name"},
		{"invalid email", http.MethodPost, "/api/v1/users", `{"email":"nope","password":"x"}`, http.StatusBadRequest, "INVALID_FIELD", ""},
		{"unknown route", http.MethodGet, "/api/v1/amenities", "", http.StatusNotFound, "NOT_FOUND", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRouter(t), tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.status, rec.Body)
			}
			got := decode(t, rec)
			if got["code"] != tt.code {
				t.Errorf("code = %v, want %s", got["code"], tt.code)
			}
			if tt.message != "" && got["message"] != tt.message {
				t.Errorf("message = %v, want %s", got["message"], tt.message)
			}
		})
	}
}

func TestTrailingSlash(t *testing.T) {
	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/api/v1/states/", "", http.StatusOK},
		{http.MethodPost, "/api/v1/states/", `{"name":"Nevada"}`, http.StatusCreated},
		{http.MethodGet, "/api/v1/places/p1/reviews/", "", http.StatusOK},
		{http.MethodPost, "/api/v1/places/p1/reviews/", `{"user_id":"u1","text":"great"}`, http.StatusCreated},
		{http.MethodGet, "/api/v1/reviews/r1/", "", http.StatusOK},
		{http.MethodGet, "/api/v1/stats/", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, newTestRouter(t), tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.status, rec.Body)
			}
		})
	}
}

func TestUpdateUserEmptyPassword(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPut, "/api/v1/users/u1", `{"password":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body)
	}
	if got := decode(t, rec); got["code"] != "INVALID_FIELD" {
		t.Errorf("code = %v, want INVALID_FIELD", got["code"])
	}
}

func TestDeleteThenGet(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodDelete, "/api/v1/reviews/r1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "{}" {
		t.Errorf("body = %s, want {}", body)
	}

	if rec := do(t, r, http.MethodGet, "/api/v1/reviews/r1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
}

func TestDeleteStateCascades(t *testing.T) {
	r := newTestRouter(t)

	if rec := do(t, r, http.MethodDelete, "/api/v1/states/s1", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	for _, path := range []string{"/api/v1/cities/c1", "/api/v1/places/p1", "/api/v1/reviews/r1"} {
		if rec := do(t, r, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}
}

func TestUserNeverExposesPassword(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/users", `{"email":"new@hbnb.io","password":"secret"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	for _, path := range []string{"/api/v1/users", "/api/v1/users/u1", "/api/v1/export"} {
		rec := do(t, r, http.MethodGet, path, "")
		if strings.Contains(rec.Body.String(), "password") || strings.Contains(rec.Body.String(), "secret") {
			t.Errorf("%s leaks the password: %s", path, rec.Body)
		}
	}
}

func TestListsAndIndex(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/api/v1/states/s1/cities", "")
	var cities []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &cities); err != nil || len(cities) != 1 {
		t.Fatalf("cities = %s (%v)", rec.Body, err)
	}
	if cities[0]["__class__"] != "City" || cities[0]["created_at"] != "2024-03-01T10:30:00.000000" {
		t.Errorf("city = %v", cities[0])
	}

	rec = do(t, r, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "OK" {
		t.Errorf("status = %d %s", rec.Code, rec.Body)
	}

	rec = do(t, r, http.MethodGet, "/api/v1/stats", "")
	if got := decode(t, rec); got["reviews"] != float64(1) || got["states"] != float64(1) {
		t.Errorf("stats = %v", got)
	}

	rec = do(t, r, http.MethodGet, "/api/v1/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "hbnb-export.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if _, ok := decode(t, rec)["Place.p1"]; !ok {
		t.Error("export is missing Place.p1")
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := decode(t, rec)
	if got["status"] != "healthy" {
		t.Errorf("body = %v", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}
