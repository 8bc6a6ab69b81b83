// Package ingest imports batches of match and triangulation rows:
// normalizing external kit ids, deduplicating segments, stamping every
// inserted row with a monotonic batch number, and advancing source
// watermarks.
package ingest

import (
	"context"
	"database/sql"

	"github.com/grailbio/base/errors"

	"github.com/johnwilmes/kgenealogic/kit"
	"github.com/johnwilmes/kgenealogic/store"
)

// MatchRow is one input row to ImportMatches. Kit2's metadata
// (Name/Email/Sex) is applied first-observation-wins; kit1's is not touched
// here.
type MatchRow struct {
	Kit1, Kit2       string
	Chromosome       string
	Start, End       int64
	Length           *float64
	Name, Email, Sex *string
}

// TriangleRow is one input row to ImportTriangles.
type TriangleRow struct {
	Kit1, Kit2, Kit3 string
	Chromosome       string
	Start, End       int64
	Length           *float64
	Name2, Email2    *string
	Name3, Email3    *string
}

// ImportMatches imports one batch of pairwise matches: resolve kit ids,
// upsert kit2 metadata, dedup segments, allocate a batch, insert both
// orderings of every match, register kit1 as a source, and advance the
// match watermark -- all inside one transaction.
func ImportMatches(ctx context.Context, s *store.Store, rows []MatchRow) (batch int64, err error) {
	if len(rows) == 0 {
		return 0, errors.New("ingest: import_matches called with no rows")
	}
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		kitids := kit.NewSet()
		for _, r := range rows {
			kitids.Add(r.Kit1)
			kitids.Add(r.Kit2)
		}
		distinct := kitids.Slice()
		ids, err := store.EnsureKits(ctx, tx, distinct)
		if err != nil {
			return errors.E(err, "ingest: ensure kits")
		}
		index := indexBy(distinct, ids)

		var kitData []store.KitData
		var sources []kit.ID
		var matches []store.MatchInput
		for _, r := range rows {
			k1, k2 := index[r.Kit1], index[r.Kit2]
			sources = append(sources, k1)
			if r.Name != nil || r.Email != nil || r.Sex != nil {
				kitData = append(kitData, store.KitData{Kit: k2, Name: r.Name, Email: r.Email, Sex: r.Sex})
			}
			segID, err := store.EnsureSegment(ctx, tx, r.Chromosome, r.Start, r.End)
			if err != nil {
				return errors.E(err, "ingest: ensure segment")
			}
			if r.Length != nil {
				if err := store.SetSegmentLength(ctx, tx, segID, *r.Length); err != nil {
					return errors.E(err, "ingest: set explicit segment length")
				}
			}
			matches = append(matches, store.MatchInput{Segment: segID, Kit1: k1, Kit2: k2})
		}

		if err := store.UpdateKitData(ctx, tx, kitData); err != nil {
			return errors.E(err, "ingest: update kit2 metadata")
		}
		if err := computeMissingLengths(ctx, tx); err != nil {
			return err
		}
		if err := store.EnsureSources(ctx, tx, sources); err != nil {
			return errors.E(err, "ingest: register sources")
		}

		batch, err = store.NextBatch(ctx, tx)
		if err != nil {
			return errors.E(err, "ingest: allocate batch")
		}
		if err := store.InsertMatches(ctx, tx, matches, batch); err != nil {
			return errors.E(err, "ingest: insert matches")
		}
		return store.SetMatchWatermark(ctx, tx, batch)
	})
	return batch, err
}

// ImportTriangles imports one batch of triangulations, analogous to
// ImportMatches but updating kit2 and kit3 metadata and stamping all six
// triangle permutations via store.InsertTriangles.
func ImportTriangles(ctx context.Context, s *store.Store, rows []TriangleRow) (batch int64, err error) {
	if len(rows) == 0 {
		return 0, errors.New("ingest: import_triangles called with no rows")
	}
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		kitids := kit.NewSet()
		for _, r := range rows {
			kitids.Add(r.Kit1)
			kitids.Add(r.Kit2)
			kitids.Add(r.Kit3)
		}
		distinct := kitids.Slice()
		ids, err := store.EnsureKits(ctx, tx, distinct)
		if err != nil {
			return errors.E(err, "ingest: ensure kits")
		}
		index := indexBy(distinct, ids)

		var kitData []store.KitData
		var sources []kit.ID
		var triangles []store.TriangleInput
		for _, r := range rows {
			k1, k2, k3 := index[r.Kit1], index[r.Kit2], index[r.Kit3]
			sources = append(sources, k1)
			if r.Name2 != nil || r.Email2 != nil {
				kitData = append(kitData, store.KitData{Kit: k2, Name: r.Name2, Email: r.Email2})
			}
			if r.Name3 != nil || r.Email3 != nil {
				kitData = append(kitData, store.KitData{Kit: k3, Name: r.Name3, Email: r.Email3})
			}
			segID, err := store.EnsureSegment(ctx, tx, r.Chromosome, r.Start, r.End)
			if err != nil {
				return errors.E(err, "ingest: ensure segment")
			}
			if r.Length != nil {
				if err := store.SetSegmentLength(ctx, tx, segID, *r.Length); err != nil {
					return errors.E(err, "ingest: set explicit segment length")
				}
			}
			triangles = append(triangles, store.TriangleInput{Segment: segID, Kit1: k1, Kit2: k2, Kit3: k3})
		}

		if err := store.UpdateKitData(ctx, tx, kitData); err != nil {
			return errors.E(err, "ingest: update kit2/kit3 metadata")
		}
		if err := computeMissingLengths(ctx, tx); err != nil {
			return err
		}
		if err := store.EnsureSources(ctx, tx, sources); err != nil {
			return errors.E(err, "ingest: register sources")
		}

		batch, err = store.NextBatch(ctx, tx)
		if err != nil {
			return errors.E(err, "ingest: allocate batch")
		}
		if err := store.InsertTriangles(ctx, tx, triangles, batch); err != nil {
			return errors.E(err, "ingest: insert triangles")
		}
		return store.SetTriangleWatermark(ctx, tx, batch)
	})
	return batch, err
}

// computeMissingLengths interpolates a cM length for every segment this
// transaction may have just introduced with a null length, using the
// bundled genetic map.
func computeMissingLengths(ctx context.Context, tx *sql.Tx) error {
	pending, err := store.NullLengthSegments(ctx, tx)
	if err != nil {
		return errors.E(err, "ingest: list null-length segments")
	}
	if len(pending) == 0 {
		return nil
	}
	gm, err := store.LoadGeneticMap(ctx, tx)
	if err != nil {
		return errors.E(err, "ingest: load genetic map")
	}
	for _, seg := range pending {
		length, ok := gm.Length(seg.Chromosome, seg.Start, seg.End)
		if !ok {
			continue // unknown chromosome: leave the length null
		}
		if err := store.SetSegmentLength(ctx, tx, seg.ID, length); err != nil {
			return errors.E(err, "ingest: write computed segment length")
		}
	}
	return nil
}

func indexBy(kitids []string, ids []kit.ID) map[string]kit.ID {
	m := make(map[string]kit.ID, len(kitids))
	for i, k := range kitids {
		m[k] = ids[i]
	}
	return m
}
