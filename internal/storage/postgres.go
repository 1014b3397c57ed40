package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/hbnb-api/internal/database"
	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var (
	_ Store  = (*PostgresStore)(nil)
	_ Pinger = (*PostgresStore)(nil)
)

// PostgresStore keeps one table per kind. Writes are staged in the caller's
// unit of work and flushed in a single transaction by Save.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger

	shared *unit
}

// NewPostgresStore returns a store over the tables created by the migrations
// of db.
func NewPostgresStore(db *database.Database, logger *zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		pool:    db.Pool,
		logger:  logger,
		shared:  newUnit(),
	}
}

func table(kind model.Kind) (string, error) {
	schema := model.SchemaOf(kind)
	if schema == nil {
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	return pgx.Identifier{schema.Table}.Sanitize(), nil
}

func (s *PostgresStore) Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	doc, deleted, staged := unitOf(ctx, s.shared).lookup(kind, id)
	if staged {
		if deleted {
			return nil, ErrNotFound
		}
		return model.Decode(kind, doc)
	}

	tbl, err := table(kind)
	if err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, "SELECT document FROM "+tbl+" WHERE id = $1", id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return model.Decode(kind, doc)
}

func (s *PostgresStore) All(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	tbl, err := table(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, "SELECT id, document FROM "+tbl)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	docs := map[string][]byte{}
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		docs[id] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	return decodeAll(kind, unitOf(ctx, s.shared).overlay(kind, docs))
}

func (s *PostgresStore) Count(ctx context.Context, kind model.Kind) (int, error) {
	all, err := s.All(ctx, kind)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (s *PostgresStore) New(ctx context.Context, e model.Entity) error {
	doc, err := model.Encode(e)
	if err != nil {
		return err
	}
	unitOf(ctx, s.shared).put(e.Kind(), e.Meta().ID, doc)
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, e model.Entity) error {
	unitOf(ctx, s.shared).remove(e.Kind(), e.Meta().ID)
	return nil
}

// Save flushes the unit of ctx. It deletes dependents before the rows they
// reference and inserts referenced rows first. The unit's writes are
// discarded whatever the outcome; other units are untouched.
func (s *PostgresStore) Save(ctx context.Context) error {
	changes := unitOf(ctx, s.shared).take()
	if changes.empty() {
		return nil
	}

	batch := &pgx.Batch{}
	kinds := model.Kinds()

	for i := len(kinds) - 1; i >= 0; i-- {
		tbl, err := table(kinds[i])
		if err != nil {
			return err
		}
		for id := range changes.deletes[kinds[i]] {
			batch.Queue("DELETE FROM "+tbl+" WHERE id = $1", id)
		}
	}

	for _, kind := range kinds {
		schema := model.SchemaOf(kind)
		query := upsertQuery(schema)
		for _, doc := range changes.puts[kind] {
			e, err := model.Decode(kind, doc)
			if err != nil {
				return err
			}
			args := []any{e.Meta().ID, e.Meta().CreatedAt, e.Meta().UpdatedAt}
			for _, f := range schema.References() {
				args = append(args, schema.String(e, f.Name))
			}
			args = append(args, string(doc))
			batch.Queue(query, args...)
		}
	}

	start := time.Now()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("flush %d statements: %w", batch.Len(), err)
	}

	s.logger.Debug().
		Int("statements", batch.Len()).
		Dur("duration", time.Since(start)).
		Msg("storage changes flushed")
	return nil
}

// upsertQuery builds the INSERT ... ON CONFLICT statement of one kind.
// Columns are id, created_at, updated_at, the reference columns, document.
func upsertQuery(schema *model.Schema) string {
	columns := []string{"id", "created_at", "updated_at"}
	for _, f := range schema.References() {
		columns = append(columns, f.Name)
	}
	columns = append(columns, "document")

	placeholders := make([]string, len(columns))
	updates := make([]string, 0, len(columns)-1)
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col != "id" && col != "created_at" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		pgx.Identifier{schema.Table}.Sanitize(),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}

// Reload discards writes staged without a unit; the database itself is
// always current.
func (s *PostgresStore) Reload(_ context.Context) error {
	s.shared.take()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close is a no-op: the pool belongs to database.Database.
func (s *PostgresStore) Close() error {
	return nil
}
