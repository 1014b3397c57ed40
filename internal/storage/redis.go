package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	_ Store  = (*RedisStore)(nil)
	_ Pinger = (*RedisStore)(nil)
)

// RedisStore keeps one hash per kind, field id -> JSON document. Writes are
// staged in the caller's unit of work and flushed in one MULTI/EXEC
// pipeline by Save.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zerolog.Logger

	shared *unit
}

// NewRedisStore returns a store keeping its hashes under prefix.
func NewRedisStore(client *redis.Client, prefix string, logger *zerolog.Logger) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		logger:  logger,
		shared:  newUnit(),
	}
}

func (s *RedisStore) hashKey(kind model.Kind) (string, error) {
	schema := model.SchemaOf(kind)
	if schema == nil {
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	return s.prefix + ":" + schema.Table, nil
}

func (s *RedisStore) Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	doc, deleted, staged := unitOf(ctx, s.shared).lookup(kind, id)
	if staged {
		if deleted {
			return nil, ErrNotFound
		}
		return model.Decode(kind, doc)
	}

	key, err := s.hashKey(kind)
	if err != nil {
		return nil, err
	}

	doc, err = s.client.HGet(ctx, key, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return model.Decode(kind, doc)
}

func (s *RedisStore) All(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	key, err := s.hashKey(kind)
	if err != nil {
		return nil, err
	}

	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	docs := make(map[string][]byte, len(values))
	for id, doc := range values {
		docs[id] = []byte(doc)
	}

	return decodeAll(kind, unitOf(ctx, s.shared).overlay(kind, docs))
}

func (s *RedisStore) Count(ctx context.Context, kind model.Kind) (int, error) {
	all, err := s.All(ctx, kind)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (s *RedisStore) New(ctx context.Context, e model.Entity) error {
	doc, err := model.Encode(e)
	if err != nil {
		return err
	}
	unitOf(ctx, s.shared).put(e.Kind(), e.Meta().ID, doc)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, e model.Entity) error {
	unitOf(ctx, s.shared).remove(e.Kind(), e.Meta().ID)
	return nil
}

// Save flushes the unit of ctx atomically. The unit's writes are discarded
// whatever the outcome; other units are untouched.
func (s *RedisStore) Save(ctx context.Context) error {
	changes := unitOf(ctx, s.shared).take()
	if changes.empty() {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, kind := range model.Kinds() {
			key, err := s.hashKey(kind)
			if err != nil {
				return err
			}
			if ids := changes.deletes[kind]; len(ids) > 0 {
				fields := make([]string, 0, len(ids))
				for id := range ids {
					fields = append(fields, id)
				}
				pipe.HDel(ctx, key, fields...)
			}
			if docs := changes.puts[kind]; len(docs) > 0 {
				values := make(map[string]any, len(docs))
				for id, doc := range docs {
					values[id] = doc
				}
				pipe.HSet(ctx, key, values)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flush storage changes: %w", err)
	}

	s.logger.Debug().Msg("storage changes flushed")
	return nil
}

// Reload discards writes staged without a unit; Redis itself is always current.
func (s *RedisStore) Reload(_ context.Context) error {
	s.shared.take()
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op: the client belongs to the server container.
func (s *RedisStore) Close() error {
	return nil
}
