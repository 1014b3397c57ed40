package repository

import (
	"context"
	"errors"

	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/deppfellow/hbnb-api/internal/storage"
)

// Repositories groups one repository per kind over a shared store.
type Repositories struct {
	Store   storage.Store
	States  *Repository[*model.State]
	Cities  *Repository[*model.City]
	Users   *Repository[*model.User]
	Places  *Repository[*model.Place]
	Reviews *Repository[*model.Review]
}

// NewRepositories binds one repository per kind to the store of s.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Store:   s.Store,
		States:  NewRepository[*model.State](s.Store),
		Cities:  NewRepository[*model.City](s.Store),
		Users:   NewRepository[*model.User](s.Store),
		Places:  NewRepository[*model.Place](s.Store),
		Reviews: NewRepository[*model.Review](s.Store),
	}
}

// Exists reports whether an entity of kind with id is stored.
func (r *Repositories) Exists(ctx context.Context, kind model.Kind, id string) (bool, error) {
	_, err := r.Store.Get(ctx, kind, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type ref struct {
	kind model.Kind
	id   string
}

// Dependents returns every entity that references kind/id, directly or
// through other dependents. The entity itself is not included.
func (r *Repositories) Dependents(ctx context.Context, kind model.Kind, id string) ([]model.Entity, error) {
	seen := map[string]bool{kind.Key(id): true}
	pending := []ref{{kind, id}}
	var out []model.Entity

	for len(pending) > 0 {
		cur := pending[0]
		pending = pending[1:]

		for _, k := range model.Kinds() {
			schema := model.SchemaOf(k)
			var fields []string
			for _, f := range schema.References() {
				if f.Ref == cur.kind {
					fields = append(fields, f.Name)
				}
			}
			if len(fields) == 0 {
				continue
			}

			all, err := r.Store.All(ctx, k)
			if err != nil {
				return nil, err
			}
			for _, e := range all {
				key := k.Key(e.Meta().ID)
				if seen[key] || !references(schema, e, fields, cur.id) {
					continue
				}
				seen[key] = true
				out = append(out, e)
				pending = append(pending, ref{k, e.Meta().ID})
			}
		}
	}

	return out, nil
}

func references(schema *model.Schema, e model.Entity, fields []string, id string) bool {
	for _, f := range fields {
		if schema.String(e, f) == id {
			return true
		}
	}
	return false
}

// Begin starts a unit of work. Writes staged with the returned context are
// flushed by Save with that context and by no other call.
func (r *Repositories) Begin(ctx context.Context) context.Context {
	return storage.Begin(ctx)
}

// Save flushes every change staged in the unit of ctx in one call to the store.
func (r *Repositories) Save(ctx context.Context) error {
	return r.Store.Save(ctx)
}
