package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	segpkg "github.com/johnwilmes/kgenealogic/segment"
)

// InsertNegative records one negative triangulation segment against an
// overlap. Duplicate (overlap, neg_segment) pairs are ignored.
func InsertNegative(ctx context.Context, tx *sql.Tx, overlap, negSegment int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO negative (overlap, neg_segment) VALUES (?, ?)`, overlap, negSegment)
	return errors.Wrap(err, "store: insert negative")
}

// NegativesByOverlap returns the negative segments recorded for one overlap.
func NegativesByOverlap(ctx context.Context, q Queryer, overlap int64) ([]segpkg.Segment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT s.id, s.chromosome, s.start, s.end, s.length
		 FROM negative n JOIN segment s ON n.neg_segment = s.id
		 WHERE n.overlap = ?`, overlap)
	if err != nil {
		return nil, errors.Wrap(err, "store: query negatives by overlap")
	}
	defer rows.Close()
	var out []segpkg.Segment
	for rows.Next() {
		var seg segpkg.Segment
		if err := rows.Scan(&seg.ID, &seg.Chromosome, &seg.Start, &seg.End, &seg.Length); err != nil {
			return nil, errors.Wrap(err, "store: scan negative segment")
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}
