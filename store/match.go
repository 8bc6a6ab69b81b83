package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/johnwilmes/kgenealogic/kit"
	segpkg "github.com/johnwilmes/kgenealogic/segment"
)

// MatchInput is one already-resolved (internal ids, not external kitids)
// pairwise match to insert. InsertMatches stores both (kit1, kit2) and its
// mirror (kit2, kit1); callers never supply both orderings themselves.
type MatchInput struct {
	Segment int64
	Kit1    kit.ID
	Kit2    kit.ID
}

// InsertMatches stamps every row (and its mirror) with batch and inserts
// them, ignoring any that already exist (unique on segment, kit1, kit2).
func InsertMatches(ctx context.Context, tx *sql.Tx, rows []MatchInput, batch int64) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO match (segment, kit1, kit2, batch) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "store: prepare match insert")
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Segment, int64(r.Kit1), int64(r.Kit2), batch); err != nil {
			return errors.Wrap(err, "store: insert match")
		}
		if _, err := stmt.ExecContext(ctx, r.Segment, int64(r.Kit2), int64(r.Kit1), batch); err != nil {
			return errors.Wrap(err, "store: insert mirrored match")
		}
	}
	return nil
}

// MatchEdge is one directed (kit1, kit2) match row together with its
// segment, used both by the Graph Builder (aggregating weights) and the
// Negative Builder (finding overlapping match segments).
type MatchEdge struct {
	Kit1    kit.ID
	Kit2    kit.ID
	Segment segpkg.Segment
}

// MatchesBySource returns every match row with kit1 = source, joined to its
// segment. If targets is non-nil, rows are further restricted to kit2 in
// targets.
func MatchesBySource(ctx context.Context, q Queryer, source kit.ID, targets []kit.ID) ([]MatchEdge, error) {
	var allow map[kit.ID]bool
	if targets != nil {
		allow = make(map[kit.ID]bool, len(targets))
		for _, t := range targets {
			allow[t] = true
		}
	}
	rows, err := q.QueryContext(ctx,
		`SELECT m.kit2, s.id, s.chromosome, s.start, s.end, s.length
		 FROM match m JOIN segment s ON m.segment = s.id
		 WHERE m.kit1 = ?`, int64(source))
	if err != nil {
		return nil, errors.Wrap(err, "store: query matches by source")
	}
	defer rows.Close()
	var out []MatchEdge
	for rows.Next() {
		var kit2 int64
		var seg segpkg.Segment
		if err := rows.Scan(&kit2, &seg.ID, &seg.Chromosome, &seg.Start, &seg.End, &seg.Length); err != nil {
			return nil, errors.Wrap(err, "store: scan match row")
		}
		if allow != nil && !allow[kit.ID(kit2)] {
			continue
		}
		out = append(out, MatchEdge{Kit1: source, Kit2: kit.ID(kit2), Segment: seg})
	}
	return out, rows.Err()
}

// AllMatchEdges returns every directed match row with its segment, used by
// the Graph Builder to compute base pairwise edge weights.
func AllMatchEdges(ctx context.Context, q Queryer) ([]MatchEdge, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT m.kit1, m.kit2, s.id, s.chromosome, s.start, s.end, s.length
		 FROM match m JOIN segment s ON m.segment = s.id`)
	if err != nil {
		return nil, errors.Wrap(err, "store: query all match edges")
	}
	defer rows.Close()
	var out []MatchEdge
	for rows.Next() {
		var e MatchEdge
		var kit1, kit2 int64
		if err := rows.Scan(&kit1, &kit2, &e.Segment.ID, &e.Segment.Chromosome, &e.Segment.Start, &e.Segment.End, &e.Segment.Length); err != nil {
			return nil, errors.Wrap(err, "store: scan match edge")
		}
		e.Kit1, e.Kit2 = kit.ID(kit1), kit.ID(kit2)
		out = append(out, e)
	}
	return out, rows.Err()
}
