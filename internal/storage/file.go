package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/rs/zerolog"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps every entity in memory and writes the whole set to a JSON
// file on Save, keyed "<Kind>.<id>". With an empty path nothing is written
// and the store lives only as long as the process.
//
// objects only ever holds saved state: staged writes become visible to
// other units once the file holding them is in place.
type FileStore struct {
	mu      sync.RWMutex
	objects map[model.Kind]map[string][]byte

	// saveMu orders Saves from snapshot to rename.
	saveMu sync.Mutex
	shared *unit

	path   string
	logger *zerolog.Logger
}

// NewFileStore loads path, if it exists, into a new store.
func NewFileStore(path string, logger *zerolog.Logger) (*FileStore, error) {
	s := &FileStore{path: path, logger: logger, shared: newUnit()}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	doc, deleted, staged := unitOf(ctx, s.shared).lookup(kind, id)
	if !staged {
		s.mu.RLock()
		doc, staged = s.objects[kind][id]
		s.mu.RUnlock()
	}
	if deleted || !staged {
		return nil, ErrNotFound
	}
	return model.Decode(kind, doc)
}

func (s *FileStore) All(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	s.mu.RLock()
	docs := make(map[string][]byte, len(s.objects[kind]))
	for id, doc := range s.objects[kind] {
		docs[id] = doc
	}
	s.mu.RUnlock()

	return decodeAll(kind, unitOf(ctx, s.shared).overlay(kind, docs))
}

func (s *FileStore) Count(ctx context.Context, kind model.Kind) (int, error) {
	all, err := s.All(ctx, kind)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (s *FileStore) New(ctx context.Context, e model.Entity) error {
	doc, err := model.Encode(e)
	if err != nil {
		return err
	}
	unitOf(ctx, s.shared).put(e.Kind(), e.Meta().ID, doc)
	return nil
}

func (s *FileStore) Delete(ctx context.Context, e model.Entity) error {
	unitOf(ctx, s.shared).remove(e.Kind(), e.Meta().ID)
	return nil
}

// Save applies the writes staged in ctx's unit and, with a path, writes the
// file atomically through a temporary file in the same directory. When the
// write fails the staged writes are dropped and the store keeps its last
// saved state.
func (s *FileStore) Save(ctx context.Context) error {
	changes := unitOf(ctx, s.shared).take()
	if changes.empty() {
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	next := changes.apply(s.objects)
	s.mu.RUnlock()

	if s.path != "" {
		if err := s.write(next); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.objects = next
	s.mu.Unlock()
	return nil
}

func (s *FileStore) write(objects map[model.Kind]map[string][]byte) error {
	out := make(map[string]json.RawMessage)
	for kind, docs := range objects {
		for id, doc := range docs {
			out[kind.Key(id)] = doc
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".hbnb-*.json")
	if err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}

	s.logger.Debug().Str("path", s.path).Int("objects", len(out)).Msg("storage file saved")
	return nil
}

// Reload replaces the saved state with the file contents and drops the
// writes staged without a unit. A missing file yields an empty store.
func (s *FileStore) Reload(_ context.Context) error {
	objects := map[model.Kind]map[string][]byte{}

	if s.path != "" {
		data, err := os.ReadFile(s.path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return fmt.Errorf("reload %s: %w", s.path, err)
		default:
			var raw map[string]json.RawMessage
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("reload %s: %w", s.path, err)
			}
			for key, doc := range raw {
				kind, id, ok := strings.Cut(key, ".")
				if !ok || model.SchemaOf(model.Kind(kind)) == nil {
					s.logger.Warn().Str("key", key).Msg("skipping unknown object in storage file")
					continue
				}
				if objects[model.Kind(kind)] == nil {
					objects[model.Kind(kind)] = map[string][]byte{}
				}
				objects[model.Kind(kind)][id] = doc
			}
		}
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.shared.take()
	s.mu.Lock()
	s.objects = objects
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
