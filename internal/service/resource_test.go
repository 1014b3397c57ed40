package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deppfellow/hbnb-api/internal/config"
	"github.com/deppfellow/hbnb-api/internal/errs"
	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/deppfellow/hbnb-api/internal/repository"
	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/deppfellow/hbnb-api/internal/storage"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// countingStore counts flushes of an in-memory store.
type countingStore struct {
	storage.Store
	saves atomic.Int64
}

func (c *countingStore) Save(ctx context.Context) error {
	c.saves.Add(1)
	return c.Store.Save(ctx)
}

type fixture struct {
	ctx      context.Context
	store    *countingStore
	repos    *repository.Repositories
	services *Services
}

var seedTime = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func base(id string) model.Base {
	return model.Base{ID: id, CreatedAt: seedTime, UpdatedAt: seedTime}
}

// newFixture seeds state s1, city c1, user u1, place p1 and review r1.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	mem, err := storage.Open(config.StorageConfig{Engine: config.EngineMemory}, storage.Deps{Logger: &logger})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store := &countingStore{Store: mem}

	s := &server.Server{Config: &config.Config{}, Logger: &logger, Store: store}
	repos := repository.NewRepositories(s)
	services, err := NewService(s, repos)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ctx := context.Background()
	seed := []model.Entity{
		&model.State{Base: base("s1"), Name: "California"},
		&model.City{Base: base("c1"), StateID: "s1", Name: "San Francisco"},
		&model.User{Base: base("u1"), Email: "betty@hbnb.io", Password: "pwd"},
		&model.Place{Base: base("p1"), CityID: "c1", UserID: "u1", Name: "Loft"},
		&model.Review{Base: base("r1"), PlaceID: "p1", UserID: "u1", Text: "nice"},
	}
	for _, e := range seed {
		if err := mem.New(ctx, e); err != nil {
			t.Fatalf("seed %s: %v", e.Kind(), err)
		}
	}
	if err := mem.Save(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	return &fixture{ctx: ctx, store: store, repos: repos, services: services}
}

func assertHTTPError(t *testing.T, err error, status int, code, message string) {
	t.Helper()
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *errs.HTTPError", err)
	}
	if httpErr.Status != status {
		t.Errorf("status = %d, want %d", httpErr.Status, status)
	}
	if code != "" && httpErr.Code != code {
		t.Errorf("code = %q, want %q", httpErr.Code, code)
	}
	if message != "" && httpErr.Message != message {
		t.Errorf("message = %q, want %q", httpErr.Message, message)
	}
}

func TestCreateReview(t *testing.T) {
	f := newFixture(t)

	got, err := f.services.Reviews.Create(f.ctx, "p1", []byte(`{"user_id":"u1","text":"great","place_id":"elsewhere"}`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got["place_id"] != "p1" || got["user_id"] != "u1" || got["text"] != "great" {
		t.Errorf("created = %v", got)
	}
	if id, _ := got["id"].(string); id == "" {
		t.Error("no id generated")
	}
	if got["__class__"] != "Review" {
		t.Errorf("__class__ = %v", got["__class__"])
	}
	if f.store.saves.Load() != 1 {
		t.Errorf("saves = %d, want 1", f.store.saves.Load())
	}
}

func TestCreateIgnoresClientIdentity(t *testing.T) {
	f := newFixture(t)

	got, err := f.services.States.Create(f.ctx, "", []byte(`{"name":"Nevada","id":"s1","created_at":"1999-01-01T00:00:00.000000"}`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got["id"] == "s1" {
		t.Fatal("client-supplied id was used")
	}

	original, err := f.services.States.Get(f.ctx, "s1")
	if err != nil || original["name"] != "California" {
		t.Fatalf("existing state overwritten: %v %v", original, err)
	}
}

func (f *fixture) create(kind model.Kind, parentID, body string) error {
	var err error
	switch kind {
	case model.KindState:
		_, err = f.services.States.Create(f.ctx, parentID, []byte(body))
	case model.KindCity:
		_, err = f.services.Cities.Create(f.ctx, parentID, []byte(body))
	case model.KindUser:
		_, err = f.services.Users.Create(f.ctx, parentID, []byte(body))
	case model.KindPlace:
		_, err = f.services.Places.Create(f.ctx, parentID, []byte(body))
	case model.KindReview:
		_, err = f.services.Reviews.Create(f.ctx, parentID, []byte(body))
	}
	return err
}

func TestCreateFailures(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.Kind
		parent  string
		body    string
		status  int
		code    string
		message string
	}{
		{"parent absent", model.KindReview, "nope", `{"user_id":"u1","text":"x"}`, http.StatusNotFound, "", "Place not found"},
		{"parent checked before body", model.KindReview, "nope", `garbage`, http.StatusNotFound, "", "Place not found"},
		{"not json", model.KindReview, "p1", `garbage`, http.StatusBadRequest, errs.CodeNotAJSON, "Not a JSON"},
		{"json array", model.KindState, "", `["name"]`, http.StatusBadRequest, errs.CodeNotAJSON, ""},
		{"missing user_id", model.KindReview, "p1", `{"text":"x"}`, http.StatusBadRequest, errs.CodeMissingField, "Missing user_id"},
		{"user absent", model.KindReview, "p1", `{"user_id":"ghost"}`, http.StatusNotFound, "", "User not found"},
		{"missing text", model.KindReview, "p1", `{"user_id":"u1"}`, http.StatusBadRequest, errs.CodeMissingField, "Missing text"},
		{"missing email", model.KindUser, "", `{"password":"x"}`, http.StatusBadRequest, errs.CodeMissingField, "Missing email"},
		{"missing password", model.KindUser, "", `{"email":"a@b.io"}`, http.StatusBadRequest, errs.CodeMissingField, "Missing password"},
		{"missing place name", model.KindPlace, "c1", `{"user_id":"u1"}`, http.StatusBadRequest, errs.CodeMissingField, "Missing name"},
		{"state absent", model.KindCity, "s9", `{"name":"x"}`, http.StatusNotFound, "", "State not found"},
		{"missing city name", model.KindCity, "s1", `{"description":"x"}`, http.StatusBadRequest, errs.CodeMissingField, "Missing name"},
		{"place owner checked before name", model.KindPlace, "c1", `{"description":"x"}`, http.StatusBadRequest, errs.CodeMissingField, "Missing user_id"},
		{"place owner absent", model.KindPlace, "c1", `{"user_id":"ghost","name":"x"}`, http.StatusNotFound, "", "User not found"},
		{"city absent", model.KindPlace, "c9", `{"user_id":"u1","name":"x"}`, http.StatusNotFound, "", "City not found"},
		{"wrong type", model.KindPlace, "c1", `{"user_id":"u1","name":"x","number_rooms":"two"}`, http.StatusBadRequest, errs.CodeInvalidField, ""},
		{"constraint", model.KindPlace, "c1", `{"user_id":"u1","name":"x","latitude":120}`, http.StatusBadRequest, errs.CodeInvalidField, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			assertHTTPError(t, f.create(tt.kind, tt.parent, tt.body), tt.status, tt.code, tt.message)
			if f.store.saves.Load() != 0 {
				t.Errorf("failed create flushed the store %d times", f.store.saves.Load())
			}
		})
	}
}

func TestUpdateReview(t *testing.T) {
	f := newFixture(t)

	got, err := f.services.Reviews.Update(f.ctx, "r1", []byte(`{"text":"updated","id":"other","place_id":"p9","user_id":"u9","created_at":"2000-01-01T00:00:00.000000"}`))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got["id"] != "r1" || got["text"] != "updated" || got["place_id"] != "p1" || got["user_id"] != "u1" {
		t.Errorf("updated = %v", got)
	}
	if got["created_at"] != "2024-03-01T10:30:00.000000" {
		t.Errorf("created_at = %v", got["created_at"])
	}
	if got["updated_at"] == got["created_at"] {
		t.Error("updated_at not stamped")
	}

	stored, err := f.repos.Reviews.Get(f.ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Text != "updated" {
		t.Errorf("stored text = %q", stored.Text)
	}
	if _, err := f.repos.Reviews.Get(f.ctx, "other"); !errors.Is(err, storage.ErrNotFound) {
		t.Error("update created an entity under the payload id")
	}
	if f.store.saves.Load() != 1 {
		t.Errorf("saves = %d, want 1", f.store.saves.Load())
	}
}

func TestUpdateUserKeepsEmailAndHashesPassword(t *testing.T) {
	f := newFixture(t)

	got, err := f.services.Users.Update(f.ctx, "u1", []byte(`{"email":"new@hbnb.io","password":"secret","first_name":"Betty"}`))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got["email"] != "betty@hbnb.io" || got["first_name"] != "Betty" {
		t.Errorf("updated = %v", got)
	}
	if _, ok := got["password"]; ok {
		t.Error("password serialized")
	}

	u, _ := f.repos.Users.Get(f.ctx, "u1")
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret")) != nil {
		t.Error("stored password does not verify")
	}
}

func TestUpdateUserRejectsEmptyPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.services.Users.Update(f.ctx, "u1", []byte(`{"password":""}`))
	assertHTTPError(t, err, http.StatusBadRequest, errs.CodeInvalidField, "")
	if f.store.saves.Load() != 0 {
		t.Error("rejected update flushed the store")
	}

	u, err := f.repos.Users.Get(f.ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Password != "pwd" {
		t.Errorf("stored password = %q, want it unchanged", u.Password)
	}
}

func TestConcurrentCreatesAreAllDurable(t *testing.T) {
	const writers = 20
	logger := zerolog.Nop()
	cfg := config.StorageConfig{Engine: config.EngineFile, FilePath: filepath.Join(t.TempDir(), "file.json")}

	store, err := storage.Open(cfg, storage.Deps{Logger: &logger})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s := &server.Server{Config: &config.Config{}, Logger: &logger, Store: store}
	services, err := NewService(s, repository.NewRepositories(s))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := services.States.Create(context.Background(), "", []byte(`{"name":"`+name+`"}`))
			errCh <- err
		}(fmt.Sprintf("state %d", i))
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	reopened, err := storage.Open(cfg, storage.Deps{Logger: &logger})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if n, _ := reopened.Count(context.Background(), model.KindState); n != writers {
		t.Errorf("file holds %d states, want %d", n, writers)
	}
}

func TestMissingEntity(t *testing.T) {
	f := newFixture(t)
	r := f.services.Reviews

	_, err := r.Get(f.ctx, "nope")
	assertHTTPError(t, err, http.StatusNotFound, "NOT_FOUND", "Review not found")

	_, err = r.Update(f.ctx, "nope", []byte(`{"text":"x"}`))
	assertHTTPError(t, err, http.StatusNotFound, "", "")

	_, err = r.Delete(f.ctx, "nope")
	assertHTTPError(t, err, http.StatusNotFound, "", "")

	_, err = r.ListChildren(f.ctx, "nope")
	assertHTTPError(t, err, http.StatusNotFound, "", "Place not found")
}

func TestUpdateNotJSON(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{"", "{}", "null", "[1]", "{bad"} {
		_, err := f.services.Reviews.Update(f.ctx, "r1", []byte(body))
		assertHTTPError(t, err, http.StatusBadRequest, errs.CodeNotAJSON, "Not a JSON")
	}
}

func TestDeleteThenGet(t *testing.T) {
	f := newFixture(t)

	got, err := f.services.Reviews.Delete(f.ctx, "r1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Delete returned %v, want {}", got)
	}
	if f.store.saves.Load() != 1 {
		t.Errorf("saves = %d, want 1", f.store.saves.Load())
	}

	_, err = f.services.Reviews.Get(f.ctx, "r1")
	assertHTTPError(t, err, http.StatusNotFound, "", "")
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)

	if _, err := f.services.States.Delete(f.ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, kind := range []model.Kind{model.KindCity, model.KindPlace, model.KindReview} {
		if n, _ := f.store.Count(f.ctx, kind); n != 0 {
			t.Errorf("%s left after deleting state: %d", kind, n)
		}
	}
	if n, _ := f.store.Count(f.ctx, model.KindUser); n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
	if f.store.saves.Load() != 1 {
		t.Errorf("saves = %d, want 1", f.store.saves.Load())
	}
}

func TestDeleteUserRemovesTheirPlacesAndReviews(t *testing.T) {
	f := newFixture(t)

	if _, err := f.services.Users.Delete(f.ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, kind := range []model.Kind{model.KindPlace, model.KindReview} {
		if n, _ := f.store.Count(f.ctx, kind); n != 0 {
			t.Errorf("%s left after deleting user: %d", kind, n)
		}
	}
	if n, _ := f.store.Count(f.ctx, model.KindCity); n != 1 {
		t.Errorf("cities = %d, want 1", n)
	}
}

func TestListChildrenOrdered(t *testing.T) {
	f := newFixture(t)
	later := seedTime.Add(time.Hour)
	_ = f.store.New(f.ctx, &model.Review{Base: model.Base{ID: "r0", CreatedAt: later, UpdatedAt: later}, PlaceID: "p1", UserID: "u1", Text: "later"})
	_ = f.store.New(f.ctx, &model.Review{Base: base("r2"), PlaceID: "p1", UserID: "u1", Text: "same time"})
	_ = f.store.New(f.ctx, &model.Review{Base: base("r3"), PlaceID: "elsewhere", UserID: "u1", Text: "other place"})

	got, err := f.services.Reviews.ListChildren(f.ctx, "p1")
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}

	want := []string{"r1", "r2", "r0"}
	if len(got) != len(want) {
		t.Fatalf("got %d reviews, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i]["id"] != id {
			t.Errorf("review %d = %v, want %s", i, got[i]["id"], id)
		}
	}
}

func TestListEmptyIsNotNil(t *testing.T) {
	f := newFixture(t)
	got, err := f.services.Cities.ListChildren(f.ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("cities = %d, want 1", len(got))
	}

	_, _ = f.services.Reviews.Delete(f.ctx, "r1")
	reviews, err := f.services.Reviews.ListChildren(f.ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if reviews == nil {
		t.Error("empty list is nil")
	}
}

func TestAfterCreateHook(t *testing.T) {
	f := newFixture(t)

	var created []string
	f.services.Users.afterCreate = func(_ context.Context, u *model.User) {
		created = append(created, u.Email)
	}

	if _, err := f.services.Users.Create(f.ctx, "", []byte(`{"email":"new@hbnb.io","password":"pwd"}`)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0] != "new@hbnb.io" {
		t.Errorf("hook calls = %v", created)
	}
}

func TestIndexStatsAndExport(t *testing.T) {
	f := newFixture(t)

	stats, err := f.services.Index.Stats(f.ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	for _, table := range []string{"states", "cities", "users", "places", "reviews"} {
		if stats[table] != 1 {
			t.Errorf("stats[%s] = %d, want 1", table, stats[table])
		}
	}

	export, err := f.services.Index.Export(f.ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	for _, key := range []string{`"State.s1"`, `"Review.r1"`} {
		if !containsBytes(export, key) {
			t.Errorf("export is missing %s", key)
		}
	}
	if containsBytes(export, `"password"`) {
		t.Error("export leaks passwords")
	}
}
