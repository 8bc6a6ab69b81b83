package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// NextBatch atomically increments and returns the meta table's batch
// counter, the monotonic ingest generation number stamped onto every row an
// import inserts.
func NextBatch(ctx context.Context, tx *sql.Tx) (int64, error) {
	var current int64
	if err := tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'batch'`).Scan(&current); err != nil {
		return 0, errors.Wrap(err, "store: read batch counter")
	}
	next := current + 1
	if _, err := tx.ExecContext(ctx, `UPDATE meta SET value = ? WHERE key = 'batch'`, next); err != nil {
		return 0, errors.Wrap(err, "store: advance batch counter")
	}
	return next, nil
}

// CurrentBatch reads the meta table's batch counter without advancing it.
func CurrentBatch(ctx context.Context, q Queryer) (int64, error) {
	var current int64
	err := q.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'batch'`).Scan(&current)
	return current, errors.Wrap(err, "store: read batch counter")
}
