package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/johnwilmes/kgenealogic/kit"
	segpkg "github.com/johnwilmes/kgenealogic/segment"
)

// TriangleInput is one already-resolved three-way triangulation.
// InsertTriangles stores all six permutations of (kit1, kit2, kit3), not
// just the one given.
type TriangleInput struct {
	Segment int64
	Kit1    kit.ID
	Kit2    kit.ID
	Kit3    kit.ID
}

func permuteTriangle(k1, k2, k3 kit.ID) [6][3]kit.ID {
	return [6][3]kit.ID{
		{k1, k2, k3}, {k1, k3, k2},
		{k2, k1, k3}, {k2, k3, k1},
		{k3, k1, k2}, {k3, k2, k1},
	}
}

// InsertTriangles stamps every permutation of every row with batch and
// inserts it, ignoring duplicates.
func InsertTriangles(ctx context.Context, tx *sql.Tx, rows []TriangleInput, batch int64) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO triangle (segment, kit1, kit2, kit3, batch) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "store: prepare triangle insert")
	}
	defer stmt.Close()
	for _, r := range rows {
		for _, p := range permuteTriangle(r.Kit1, r.Kit2, r.Kit3) {
			if _, err := stmt.ExecContext(ctx, r.Segment, int64(p[0]), int64(p[1]), int64(p[2]), batch); err != nil {
				return errors.Wrap(err, "store: insert triangle permutation")
			}
		}
	}
	return nil
}

// TriangleTargets returns every distinct kit2 appearing in a triangle row
// with kit1 = source: the only kits negative evidence is meaningful for,
// since they are the ones positive triangles exist among.
func TriangleTargets(ctx context.Context, q Queryer, source kit.ID) ([]kit.ID, error) {
	rows, err := q.QueryContext(ctx, `SELECT DISTINCT kit2 FROM triangle WHERE kit1 = ?`, int64(source))
	if err != nil {
		return nil, errors.Wrap(err, "store: query triangle targets")
	}
	defer rows.Close()
	var out []kit.ID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "store: scan triangle target")
		}
		out = append(out, kit.ID(id))
	}
	return out, rows.Err()
}

// TriangleSegment is one (kit1, kit2, kit3) triangle row joined to its
// segment.
type TriangleSegment struct {
	Kit1    kit.ID
	Kit2    kit.ID
	Kit3    kit.ID
	Segment segpkg.Segment
}

// TrianglesFor returns every triangle row with the given (kit1, kit2, kit3),
// joined to its segment -- the positive coverage the negative builder
// subtracts from an overlap interval.
func TrianglesFor(ctx context.Context, q Queryer, kit1, kit2, kit3 kit.ID) ([]segpkg.Segment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT s.id, s.chromosome, s.start, s.end, s.length
		 FROM triangle t JOIN segment s ON t.segment = s.id
		 WHERE t.kit1 = ? AND t.kit2 = ? AND t.kit3 = ?`,
		int64(kit1), int64(kit2), int64(kit3))
	if err != nil {
		return nil, errors.Wrap(err, "store: query triangles for triple")
	}
	defer rows.Close()
	var out []segpkg.Segment
	for rows.Next() {
		var seg segpkg.Segment
		if err := rows.Scan(&seg.ID, &seg.Chromosome, &seg.Start, &seg.End, &seg.Length); err != nil {
			return nil, errors.Wrap(err, "store: scan triangle segment")
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

// AllTriangleEdges returns every (kit1, kit2, kit3) triangle row with its
// segment, used by the Graph Builder to aggregate each row's triangle weight
// onto its (kit1, kit2) pairwise edge.
func AllTriangleEdges(ctx context.Context, q Queryer) ([]TriangleSegment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT t.kit1, t.kit2, t.kit3, s.id, s.chromosome, s.start, s.end, s.length
		 FROM triangle t JOIN segment s ON t.segment = s.id`)
	if err != nil {
		return nil, errors.Wrap(err, "store: query all triangle edges")
	}
	defer rows.Close()
	var out []TriangleSegment
	for rows.Next() {
		var t TriangleSegment
		var k1, k2, k3 int64
		if err := rows.Scan(&k1, &k2, &k3, &t.Segment.ID, &t.Segment.Chromosome, &t.Segment.Start, &t.Segment.End, &t.Segment.Length); err != nil {
			return nil, errors.Wrap(err, "store: scan triangle edge")
		}
		t.Kit1, t.Kit2, t.Kit3 = kit.ID(k1), kit.ID(k2), kit.ID(k3)
		out = append(out, t)
	}
	return out, rows.Err()
}
