package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/deppfellow/hbnb-api/internal/repository"
)

// IndexService answers questions about the store as a whole.
type IndexService struct {
	repos *repository.Repositories
}

// NewIndexService reads the whole store through repos.
func NewIndexService(repos *repository.Repositories) *IndexService {
	return &IndexService{repos: repos}
}

// Stats counts the entities of every kind, keyed by table name.
func (i *IndexService) Stats(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, kind := range model.Kinds() {
		n, err := i.repos.Store.Count(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", kind, err)
		}
		out[model.SchemaOf(kind).Table] = n
	}
	return out, nil
}

// Export returns every entity, serialized for clients, as one JSON object
// keyed "<Kind>.<id>".
func (i *IndexService) Export(ctx context.Context) ([]byte, error) {
	out := make(map[string]model.Dict)
	for _, kind := range model.Kinds() {
		all, err := i.repos.Store.All(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", kind, err)
		}
		for _, e := range all {
			d, err := model.ToDict(e)
			if err != nil {
				return nil, err
			}
			out[kind.Key(e.Meta().ID)] = d
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
