// Package store implements durable library storage on SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements domain.Store backed by a SQLite database.
//
// The connection pool is safe for concurrent readers and writers; callers
// only need to serialize whole refresh cycles, not individual queries.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the database at dbPath and applies
// the schema.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// OpenMemory opens an in-memory database. Used by tests.
func OpenMemory(logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single in-memory connection; a second one would see an empty schema
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Clean deletes every game and all dependent rows, link tables before
// their parents, in one statement batch. The asset cache on disk is not
// touched; that is the mirror's responsibility.
func (s *Store) Clean(ctx context.Context) error {
	const batch = `
		DELETE FROM developed_by;
		DELETE FROM published_by;
		DELETE FROM game_genres;
		DELETE FROM covers;
		DELETE FROM artworks;
		DELETE FROM games_store;
		DELETE FROM genres;
		DELETE FROM companies;
		DELETE FROM games;`

	if _, err := s.db.ExecContext(ctx, batch); err != nil {
		return fmt.Errorf("failed to clean database: %w", err)
	}

	s.logger.Debug("database cleaned")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
