package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/johnwilmes/kgenealogic/kit"
	segpkg "github.com/johnwilmes/kgenealogic/segment"
)

// Overlap is one row of the overlap table: a segment of source's genome that
// matches both target1 and target2, the anchor every negative triangulation
// in the overlap's interval is relative to.
type Overlap struct {
	ID      int64
	Source  kit.ID
	Target1 kit.ID
	Target2 kit.ID
	Segment int64
}

// DeleteOverlapsForSource removes every overlap row for source. Because
// negative.overlap references overlap(id) ON DELETE CASCADE, this also
// clears the source's negative rows in one statement, so a rebuild always
// starts from scratch.
func DeleteOverlapsForSource(ctx context.Context, tx *sql.Tx, source kit.ID) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM overlap WHERE source = ?`, int64(source))
	return errors.Wrapf(err, "store: delete overlaps for source %d", source)
}

// InsertOverlap inserts one overlap row (ignoring it if an identical one
// already exists) and returns its id.
func InsertOverlap(ctx context.Context, tx *sql.Tx, source, target1, target2 kit.ID, segment int64) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO overlap (source, target1, target2, segment) VALUES (?, ?, ?, ?)`,
		int64(source), int64(target1), int64(target2), segment); err != nil {
		return 0, errors.Wrap(err, "store: insert overlap")
	}
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM overlap WHERE source = ? AND target1 = ? AND target2 = ? AND segment = ?`,
		int64(source), int64(target1), int64(target2), segment).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "store: lookup overlap")
	}
	return id, nil
}

// OverlapsBySource returns every overlap row for source, joined to its
// segment.
func OverlapsBySource(ctx context.Context, q Queryer, source kit.ID) ([]Overlap, []segpkg.Segment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT o.id, o.target1, o.target2, s.id, s.chromosome, s.start, s.end, s.length
		 FROM overlap o JOIN segment s ON o.segment = s.id
		 WHERE o.source = ?`, int64(source))
	if err != nil {
		return nil, nil, errors.Wrap(err, "store: query overlaps by source")
	}
	defer rows.Close()
	var overlaps []Overlap
	var segs []segpkg.Segment
	for rows.Next() {
		var o Overlap
		var t1, t2 int64
		var seg segpkg.Segment
		if err := rows.Scan(&o.ID, &t1, &t2, &seg.ID, &seg.Chromosome, &seg.Start, &seg.End, &seg.Length); err != nil {
			return nil, nil, errors.Wrap(err, "store: scan overlap row")
		}
		o.Source, o.Target1, o.Target2, o.Segment = source, kit.ID(t1), kit.ID(t2), seg.ID
		overlaps = append(overlaps, o)
		segs = append(segs, seg)
	}
	return overlaps, segs, rows.Err()
}
