// Package store is the typed relational persistence layer for project data:
// kits, segments, sources, matches, triangles, overlaps and negatives, plus
// the meta table holding the schema version and the monotonic batch counter.
// It runs database/sql over github.com/mattn/go-sqlite3.
package store

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SchemaVersion is stored in the meta table at initialization.
const SchemaVersion = "0.2"

// Store is a handle on one project's SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (but does not initialize) the SQLite database at path.
// Use ":memory:" for an ephemeral, in-process store, as the test suite does.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "store: open")
	}
	// The clustering engine is single-threaded and every call is a short
	// transaction; one connection avoids SQLite's "database is locked"
	// surprises under concurrent *sql.DB pooling.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw *sql.DB for callers (tests, migrations tooling) that
// need it directly.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside a single SQLite transaction: all of fn's writes
// become visible atomically on success, or are rolled back in full on
// error. Ingest and the negative-triangulation rebuild both rely on this so
// that no caller ever observes a partially updated batch.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "store: begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrap(err, "store: rollback failed: "+rbErr.Error())
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "store: commit")
	}
	return nil
}
