// Package storage is the object-storage facade behind the API.
//
// A Store keeps entities by kind and id. New and Delete stage writes in a
// unit of work (see Begin); Save flushes that unit to the durable backend.
// Writes staged in one unit are invisible to the others until saved.
// Entities handed out by a Store are copies, so callers never share state.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/deppfellow/hbnb-api/internal/config"
	"github.com/deppfellow/hbnb-api/internal/database"
	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get when no entity has the requested id.
var ErrNotFound = errors.New("object not found")

// Store is the storage engine contract consumed by repositories.
type Store interface {
	// Get returns a copy of the entity, or ErrNotFound.
	Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error)

	// All returns every entity of kind, in no particular order.
	All(ctx context.Context, kind model.Kind) ([]model.Entity, error)

	// Count returns the number of entities of kind.
	Count(ctx context.Context, kind model.Kind) (int, error)

	// New stages e in the unit of ctx, replacing any entity with the same
	// kind and id.
	New(ctx context.Context, e model.Entity) error

	// Delete stages the removal of e in the unit of ctx. It does not flush.
	Delete(ctx context.Context, e model.Entity) error

	// Save flushes the unit of ctx. Saving with nothing staged is a no-op.
	// On failure the unit's writes are dropped and nothing else changes.
	Save(ctx context.Context) error

	// Reload drops writes staged without a unit and re-reads the durable state.
	Reload(ctx context.Context) error

	Close() error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries the connections a storage engine may need.
type Deps struct {
	DB     *database.Database
	Redis  *redis.Client
	Logger *zerolog.Logger
}

// Open builds the store selected by cfg.Engine.
func Open(cfg config.StorageConfig, deps Deps) (Store, error) {
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	switch cfg.Engine {
	case config.EngineMemory:
		return NewFileStore("", logger)
	case config.EngineFile:
		return NewFileStore(cfg.FilePath, logger)
	case config.EngineDB:
		if deps.DB == nil {
			return nil, fmt.Errorf("storage engine %q needs a database connection", cfg.Engine)
		}
		return NewPostgresStore(deps.DB, logger), nil
	case config.EngineRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("storage engine %q needs a redis client", cfg.Engine)
		}
		return NewRedisStore(deps.Redis, cfg.RedisPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Engine)
	}
}

// decodeAll turns raw documents into entities sorted by id.
func decodeAll(kind model.Kind, docs map[string][]byte) ([]model.Entity, error) {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.Entity, 0, len(ids))
	for _, id := range ids {
		e, err := model.Decode(kind, docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
