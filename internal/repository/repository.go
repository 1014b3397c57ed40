// Package repository gives the service layer typed access to the store.
//
// One Repository[T] exists per entity kind, so callers get *model.Place or
// *model.Review back instead of asserting on model.Entity themselves.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/deppfellow/hbnb-api/internal/storage"
)

// Repository reads and stages entities of a single kind.
type Repository[T model.Entity] struct {
	store  storage.Store
	kind   model.Kind
	schema *model.Schema
}

// NewRepository binds a repository for T to store.
func NewRepository[T model.Entity](store storage.Store) *Repository[T] {
	var zero T
	kind := zero.Kind()
	return &Repository[T]{
		store:  store,
		kind:   kind,
		schema: model.SchemaOf(kind),
	}
}

func (r *Repository[T]) Kind() model.Kind { return r.kind }

func (r *Repository[T]) Schema() *model.Schema { return r.schema }

// Blank returns a zero entity ready to be filled from a payload.
func (r *Repository[T]) Blank() T {
	e, err := model.New(r.kind)
	if err != nil {
		panic(err)
	}
	return e.(T)
}

// Get returns the entity with id, or storage.ErrNotFound.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T

	e, err := r.store.Get(ctx, r.kind, id)
	if err != nil {
		return zero, err
	}
	typed, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("store returned %T for kind %s", e, r.kind)
	}
	return typed, nil
}

// Exists reports whether an entity with id is stored.
func (r *Repository[T]) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.store.Get(ctx, r.kind, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// All returns every entity of the kind, oldest first, ties broken by id.
func (r *Repository[T]) All(ctx context.Context) ([]T, error) {
	return r.filter(ctx, nil)
}

// Where returns the entities whose string field equals value, oldest first.
func (r *Repository[T]) Where(ctx context.Context, field, value string) ([]T, error) {
	if _, ok := r.schema.Field(field); !ok {
		return nil, fmt.Errorf("%s has no field %q", r.kind, field)
	}
	return r.filter(ctx, func(e T) bool {
		return r.schema.String(e, field) == value
	})
}

func (r *Repository[T]) filter(ctx context.Context, keep func(T) bool) ([]T, error) {
	all, err := r.store.All(ctx, r.kind)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(all))
	for _, e := range all {
		typed, ok := e.(T)
		if !ok {
			return nil, fmt.Errorf("store returned %T for kind %s", e, r.kind)
		}
		if keep == nil || keep(typed) {
			out = append(out, typed)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Meta(), out[j].Meta()
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *Repository[T]) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx, r.kind)
}

// Stage registers e with the store. Nothing is durable until Repositories.Save.
func (r *Repository[T]) Stage(ctx context.Context, e T) error {
	return r.store.New(ctx, e)
}

// Remove stages the deletion of e.
func (r *Repository[T]) Remove(ctx context.Context, e T) error {
	return r.store.Delete(ctx, e)
}
