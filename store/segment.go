package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	segpkg "github.com/johnwilmes/kgenealogic/segment"
)

// EnsureSegment inserts (chromosome, start, end) as a segment if not already
// present (the triple is unique) and returns its internal id.
func EnsureSegment(ctx context.Context, tx *sql.Tx, chromosome string, start, end int64) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO segment (chromosome, start, end) VALUES (?, ?, ?)`,
		chromosome, start, end); err != nil {
		return 0, errors.Wrap(err, "store: insert segment")
	}
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM segment WHERE chromosome = ? AND start = ? AND end = ?`,
		chromosome, start, end).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "store: lookup segment")
	}
	return id, nil
}

// NullLengthSegments returns every segment whose length has not yet been
// computed.
func NullLengthSegments(ctx context.Context, q Queryer) ([]segpkg.Segment, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, chromosome, start, end FROM segment WHERE length IS NULL`)
	if err != nil {
		return nil, errors.Wrap(err, "store: list null-length segments")
	}
	defer rows.Close()
	var out []segpkg.Segment
	for rows.Next() {
		var seg segpkg.Segment
		if err := rows.Scan(&seg.ID, &seg.Chromosome, &seg.Start, &seg.End); err != nil {
			return nil, errors.Wrap(err, "store: scan segment")
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

// SetSegmentLength writes a computed length back onto a segment row.
func SetSegmentLength(ctx context.Context, tx *sql.Tx, id int64, length float64) error {
	_, err := tx.ExecContext(ctx, `UPDATE segment SET length = ? WHERE id = ?`, length, id)
	return errors.Wrapf(err, "store: set length for segment %d", id)
}

// GetSegment loads one segment by id.
func GetSegment(ctx context.Context, q Queryer, id int64) (segpkg.Segment, error) {
	var seg segpkg.Segment
	err := q.QueryRowContext(ctx, `SELECT id, chromosome, start, end, length FROM segment WHERE id = ?`, id).
		Scan(&seg.ID, &seg.Chromosome, &seg.Start, &seg.End, &seg.Length)
	if err != nil {
		return segpkg.Segment{}, errors.Wrapf(err, "store: get segment %d", id)
	}
	return seg, nil
}

// LoadGeneticMap reads the bundled genetic map into an in-memory
// segment.GeneticMap for interpolation.
func LoadGeneticMap(ctx context.Context, q Queryer) (*segpkg.GeneticMap, error) {
	rows, err := q.QueryContext(ctx, `SELECT chromosome, position, cm FROM genetmap`)
	if err != nil {
		return nil, errors.Wrap(err, "store: load genetic map")
	}
	defer rows.Close()
	gm := segpkg.NewGeneticMap()
	for rows.Next() {
		var chrom string
		var pos int64
		var cm float64
		if err := rows.Scan(&chrom, &pos, &cm); err != nil {
			return nil, errors.Wrap(err, "store: scan genetmap row")
		}
		gm.Add(chrom, pos, cm)
	}
	return gm, rows.Err()
}
