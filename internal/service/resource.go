package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/hbnb-api/internal/errs"
	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/deppfellow/hbnb-api/internal/repository"
	"github.com/deppfellow/hbnb-api/internal/storage"
	"github.com/deppfellow/hbnb-api/internal/validation"
	"github.com/rs/zerolog"
)

// Resource implements list, get, create, update and delete for one kind.
// Every mutation runs in its own unit of work and ends with exactly one
// flush of it.
type Resource[T model.Entity] struct {
	repos *repository.Repositories
	repo  *repository.Repository[T]

	// afterCreate runs once the new entity is durable. It cannot fail the request.
	afterCreate func(ctx context.Context, e T)
	now         func() time.Time
}

// NewResource serves the kind of repo. Lookups of other kinds go through repos.
func NewResource[T model.Entity](repos *repository.Repositories, repo *repository.Repository[T]) *Resource[T] {
	return &Resource[T]{
		repos: repos,
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *Resource[T]) Kind() model.Kind { return r.repo.Kind() }

func notFound(kind model.Kind) error {
	return errs.NewNotFoundError(fmt.Sprintf("%s not found", kind), false, nil)
}

func (r *Resource[T]) load(ctx context.Context, id string) (T, error) {
	e, err := r.repo.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		var zero T
		return zero, notFound(r.Kind())
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s %s: %w", r.Kind(), id, err)
	}
	return e, nil
}

func (r *Resource[T]) mustExist(ctx context.Context, kind model.Kind, id string) error {
	ok, err := r.repos.Exists(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("look up %s %s: %w", kind, id, err)
	}
	if !ok {
		return notFound(kind)
	}
	return nil
}

// List returns every entity of the kind.
func (r *Resource[T]) List(ctx context.Context) ([]model.Dict, error) {
	all, err := r.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.Kind(), err)
	}
	return model.ToDicts(all)
}

// ListChildren returns the entities whose parent key is parentID. The parent must exist.
func (r *Resource[T]) ListChildren(ctx context.Context, parentID string) ([]model.Dict, error) {
	parent, ok := r.repo.Schema().Parent()
	if !ok {
		return nil, fmt.Errorf("%s has no parent kind", r.Kind())
	}
	if err := r.mustExist(ctx, parent.Ref, parentID); err != nil {
		return nil, err
	}

	children, err := r.repo.Where(ctx, parent.Name, parentID)
	if err != nil {
		return nil, fmt.Errorf("list %s of %s %s: %w", r.Kind(), parent.Ref, parentID, err)
	}
	return model.ToDicts(children)
}

func (r *Resource[T]) Get(ctx context.Context, id string) (model.Dict, error) {
	e, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return model.ToDict(e)
}

// Create builds a new entity from body. For kinds with a parent, parentID
// must name an existing parent and overrides whatever the body says.
//
// Checks run in a fixed order: parent exists, body is a JSON object, then
// for each required field in declaration order the key is present and, for
// references, the referenced entity exists.
func (r *Resource[T]) Create(ctx context.Context, parentID string, body []byte) (model.Dict, error) {
	ctx = r.repos.Begin(ctx)
	schema := r.repo.Schema()

	parent, hasParent := schema.Parent()
	if hasParent {
		if err := r.mustExist(ctx, parent.Ref, parentID); err != nil {
			return nil, err
		}
	}

	payload, err := model.ParsePayload(body)
	if err != nil {
		return nil, errs.NewNotJSONError()
	}

	for _, f := range schema.Required() {
		if !payload.Has(f.Name) {
			return nil, errs.NewMissingFieldError(f.Name)
		}
		if f.Ref == "" || f.Parent {
			continue
		}
		refID, ok := payload.String(f.Name)
		if !ok {
			return nil, notFound(f.Ref)
		}
		if err := r.mustExist(ctx, f.Ref, refID); err != nil {
			return nil, err
		}
	}

	e := r.repo.Blank()
	if err := model.Apply(e, payload, model.IsBaseField); err != nil {
		return nil, payloadError(err)
	}
	if hasParent {
		schema.SetString(e, parent.Name, parentID)
	}

	if err := r.prepare(e); err != nil {
		return nil, err
	}

	e.Meta().Init(r.now())

	if err := r.repo.Stage(ctx, e); err != nil {
		return nil, fmt.Errorf("stage %s: %w", r.Kind(), err)
	}
	if err := r.repos.Save(ctx); err != nil {
		return nil, fmt.Errorf("save %s: %w", r.Kind(), err)
	}

	zerolog.Ctx(ctx).Info().
		Str("kind", string(r.Kind())).
		Str("id", e.Meta().ID).
		Msg("entity created")

	if r.afterCreate != nil {
		r.afterCreate(ctx, e)
	}

	return model.ToDict(e)
}

// Update applies every key of body except the immutable ones.
func (r *Resource[T]) Update(ctx context.Context, id string, body []byte) (model.Dict, error) {
	ctx = r.repos.Begin(ctx)
	e, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := model.ParsePayload(body)
	if err != nil {
		return nil, errs.NewNotJSONError()
	}

	if err := model.Apply(e, payload, r.repo.Schema().IsImmutable); err != nil {
		return nil, payloadError(err)
	}

	if err := r.prepare(e); err != nil {
		return nil, err
	}

	e.Meta().Touch(r.now())

	if err := r.repo.Stage(ctx, e); err != nil {
		return nil, fmt.Errorf("stage %s %s: %w", r.Kind(), id, err)
	}
	if err := r.repos.Save(ctx); err != nil {
		return nil, fmt.Errorf("save %s %s: %w", r.Kind(), id, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("kind", string(r.Kind())).
		Str("id", id).
		Msg("entity updated")

	return model.ToDict(e)
}

// Delete removes the entity and everything that depends on it, then flushes once.
func (r *Resource[T]) Delete(ctx context.Context, id string) (model.Dict, error) {
	ctx = r.repos.Begin(ctx)
	e, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	dependents, err := r.repos.Dependents(ctx, r.Kind(), id)
	if err != nil {
		return nil, fmt.Errorf("find dependents of %s %s: %w", r.Kind(), id, err)
	}
	for _, dep := range dependents {
		if err := r.repos.Store.Delete(ctx, dep); err != nil {
			return nil, fmt.Errorf("delete %s %s: %w", dep.Kind(), dep.Meta().ID, err)
		}
	}
	if err := r.repo.Remove(ctx, e); err != nil {
		return nil, fmt.Errorf("delete %s %s: %w", r.Kind(), id, err)
	}

	if err := r.repos.Save(ctx); err != nil {
		return nil, fmt.Errorf("save after deleting %s %s: %w", r.Kind(), id, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("kind", string(r.Kind())).
		Str("id", id).
		Int("dependents", len(dependents)).
		Msg("entity deleted")

	return model.Dict{}, nil
}

// prepare checks validator constraints and lets the entity normalize itself.
func (r *Resource[T]) prepare(e T) error {
	if err := validation.ValidateEntity(e); err != nil {
		return err
	}
	if p, ok := any(e).(model.Preparer); ok {
		if err := p.Prepare(); err != nil {
			return payloadError(err)
		}
	}
	return nil
}

func payloadError(err error) error {
	var fieldErr *model.FieldError
	if errors.As(err, &fieldErr) {
		return errs.NewInvalidFieldError([]errs.FieldError{
			{Field: fieldErr.Field, Error: fieldErr.Message},
		})
	}
	return err
}
