package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ddl is the full project schema. SQLite enforces the unique constraints
// (with ON CONFLICT IGNORE spelled in the inserts, not the DDL) and the
// ON DELETE CASCADE for negative -> overlap / negative -> segment.
const ddl = `
CREATE TABLE meta (
	key TEXT NOT NULL PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE kit (
	id INTEGER PRIMARY KEY,
	kitid TEXT NOT NULL UNIQUE,
	name TEXT,
	email TEXT,
	sex TEXT
);

CREATE TABLE genetmap (
	chromosome TEXT NOT NULL,
	position INTEGER NOT NULL,
	cm REAL NOT NULL,
	UNIQUE (chromosome, position)
);
CREATE INDEX idx_genetmap_chromosome ON genetmap (chromosome);
CREATE INDEX idx_genetmap_position ON genetmap (position);

CREATE TABLE source (
	kit INTEGER NOT NULL PRIMARY KEY REFERENCES kit(id),
	match INTEGER,
	triangle INTEGER,
	negative INTEGER
);

CREATE TABLE segment (
	id INTEGER PRIMARY KEY,
	chromosome TEXT NOT NULL,
	start INTEGER NOT NULL,
	end INTEGER NOT NULL,
	length REAL,
	UNIQUE (chromosome, start, end)
);
CREATE INDEX idx_segment_chromosome ON segment (chromosome);
CREATE INDEX idx_segment_length ON segment (length);

CREATE TABLE match (
	segment INTEGER NOT NULL REFERENCES segment(id),
	kit1 INTEGER NOT NULL REFERENCES kit(id),
	kit2 INTEGER NOT NULL REFERENCES kit(id),
	batch INTEGER NOT NULL,
	UNIQUE (segment, kit1, kit2)
);
CREATE INDEX idx_match_kit1 ON match (kit1);
CREATE INDEX idx_match_kit2 ON match (kit2);
CREATE INDEX idx_match_batch ON match (batch);

CREATE TABLE triangle (
	segment INTEGER NOT NULL REFERENCES segment(id),
	kit1 INTEGER NOT NULL REFERENCES kit(id),
	kit2 INTEGER NOT NULL REFERENCES kit(id),
	kit3 INTEGER NOT NULL REFERENCES kit(id),
	batch INTEGER NOT NULL,
	UNIQUE (segment, kit1, kit2, kit3)
);
CREATE INDEX idx_triangle_kit1 ON triangle (kit1);
CREATE INDEX idx_triangle_kit1_kit2_kit3 ON triangle (kit1, kit2, kit3);
CREATE INDEX idx_triangle_batch ON triangle (batch);

CREATE TABLE overlap (
	id INTEGER PRIMARY KEY,
	source INTEGER NOT NULL REFERENCES source(kit),
	target1 INTEGER NOT NULL REFERENCES kit(id),
	target2 INTEGER NOT NULL REFERENCES kit(id),
	segment INTEGER NOT NULL REFERENCES segment(id),
	UNIQUE (source, target1, target2, segment)
);
CREATE INDEX idx_overlap_source ON overlap (source);

CREATE TABLE negative (
	overlap INTEGER NOT NULL REFERENCES overlap(id) ON DELETE CASCADE,
	neg_segment INTEGER NOT NULL REFERENCES segment(id) ON DELETE CASCADE,
	UNIQUE (overlap, neg_segment)
);
CREATE INDEX idx_negative_overlap ON negative (overlap);
`

//go:embed genetmap.csv
var bundledGenetmap string

// Initialize creates the schema, dropping any existing tables first, and
// seeds the meta table and the bundled genetic map.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return errors.Wrap(err, "store: enable foreign keys")
	}
	if err := s.dropAll(ctx); err != nil {
		return err
	}
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return errors.Wrap(err, "store: create schema")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES ('schema_version', ?), ('batch', '0')`,
			SchemaVersion); err != nil {
			return errors.Wrap(err, "store: seed meta")
		}
		return loadGenetmap(ctx, tx, bundledGenetmap)
	})
}

var allTables = []string{
	"negative", "overlap", "triangle", "match", "source", "segment", "genetmap", "kit", "meta",
}

func (s *Store) dropAll(ctx context.Context) error {
	for _, t := range allTables {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return errors.Wrapf(err, "store: drop table %s", t)
		}
	}
	return nil
}

func loadGenetmap(ctx context.Context, tx *sql.Tx, data string) error {
	r := csv.NewReader(strings.NewReader(data))
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return errors.Wrap(err, "store: parse bundled genetic map")
	}
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO genetmap (chromosome, position, cm) VALUES (?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, "store: prepare genetmap insert")
	}
	defer stmt.Close()
	for _, row := range rows[1:] { // skip header
		if len(row) != 3 {
			continue
		}
		pos, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "store: bad genetmap position %q", row[1])
		}
		cm, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return errors.Wrapf(err, "store: bad genetmap cm %q", row[2])
		}
		if _, err := stmt.ExecContext(ctx, row[0], pos, cm); err != nil {
			return errors.Wrap(err, "store: insert genetmap row")
		}
	}
	return nil
}
