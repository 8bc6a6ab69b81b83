// Package negative derives negative triangulations: segment intervals where
// a source kit's matches overlap but no positive triangulation covers them,
// evidence that the two targets do not share that ancestral segment. The
// derived overlap and negative rows are cached in the store and refreshed
// per source, gated by the source's batch watermarks.
package negative

import (
	"context"
	"database/sql"

	"github.com/grailbio/base/errors"

	"github.com/johnwilmes/kgenealogic/kit"
	"github.com/johnwilmes/kgenealogic/segment"
	"github.com/johnwilmes/kgenealogic/store"
)

// Build refreshes source s's negative-triangulation cache if it is stale.
// ok is false when s has no match data or no triangle data yet; in that
// case the cache is left untouched and no error is returned.
func Build(ctx context.Context, s *store.Store, source kit.ID) (ok bool, err error) {
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		src, found, err := store.GetSource(ctx, tx, source)
		if err != nil {
			return errors.E(err, "negative: load source")
		}
		if !found || !src.HasData() {
			ok = false
			return nil
		}
		if !src.Stale() {
			ok = true
			return nil
		}
		if err := rebuild(ctx, tx, source); err != nil {
			return errors.E(err, "negative: rebuild")
		}
		hi := *src.Match
		if src.Triangle != nil && *src.Triangle > hi {
			hi = *src.Triangle
		}
		if err := store.SetNegativeWatermark(ctx, tx, source, hi); err != nil {
			return errors.E(err, "negative: advance watermark")
		}
		ok = true
		return nil
	})
	return ok, err
}

func rebuild(ctx context.Context, tx *sql.Tx, source kit.ID) error {
	targets, err := store.TriangleTargets(ctx, tx, source)
	if err != nil {
		return errors.E(err, "list triangle targets")
	}
	matches, err := store.MatchesBySource(ctx, tx, source, targets)
	if err != nil {
		return errors.E(err, "list match segments")
	}

	if err := store.DeleteOverlapsForSource(ctx, tx, source); err != nil {
		return errors.E(err, "clear stale overlaps")
	}

	for i := 0; i < len(matches); i++ {
		for j := 0; j < len(matches); j++ {
			if i == j {
				continue
			}
			m1, m2 := matches[i], matches[j]
			if m1.Kit2 == m2.Kit2 {
				continue
			}
			if m1.Segment.Chromosome != m2.Segment.Chromosome {
				continue
			}
			iv1, iv2 := m1.Segment.Interval(), m2.Segment.Interval()
			overlapIv, ok := segment.Intersect(iv1, iv2)
			if !ok {
				continue
			}
			if err := buildOverlap(ctx, tx, source, m1.Kit2, m2.Kit2, overlapIv); err != nil {
				return err
			}
		}
	}

	// The overlap and negative segments inserted above carry no length yet;
	// interpolate one from the bundled genetic map so they can be weighed.
	pending, err := store.NullLengthSegments(ctx, tx)
	if err != nil {
		return errors.E(err, "list null-length segments")
	}
	gm, err := store.LoadGeneticMap(ctx, tx)
	if err != nil {
		return errors.E(err, "load genetic map")
	}
	for _, seg := range pending {
		if length, ok := gm.Length(seg.Chromosome, seg.Start, seg.End); ok {
			if err := store.SetSegmentLength(ctx, tx, seg.ID, length); err != nil {
				return errors.E(err, "set segment length")
			}
		}
	}
	return nil
}

// buildOverlap inserts (or finds) the overlap segment/row for
// (source, target1, target2, interval) and materializes its negative
// intervals: whatever the positive triangle segments leave uncovered.
func buildOverlap(ctx context.Context, tx *sql.Tx, source, target1, target2 kit.ID, interval segment.Interval) error {
	segID, err := store.EnsureSegment(ctx, tx, interval.Chromosome, interval.Start, interval.End)
	if err != nil {
		return errors.E(err, "ensure overlap segment")
	}
	overlapID, err := store.InsertOverlap(ctx, tx, source, target1, target2, segID)
	if err != nil {
		return errors.E(err, "insert overlap")
	}

	positiveSegs, err := store.TrianglesFor(ctx, tx, source, target1, target2)
	if err != nil {
		return errors.E(err, "list positive triangle segments")
	}
	var positives []segment.Interval
	for _, p := range positiveSegs {
		if p.Chromosome != interval.Chromosome {
			continue
		}
		if pi, ok := segment.Intersect(interval, p.Interval()); ok {
			positives = append(positives, pi)
		}
	}
	negatives := segment.Subtract(interval, positives)
	for _, neg := range negatives {
		negSegID, err := store.EnsureSegment(ctx, tx, neg.Chromosome, neg.Start, neg.End)
		if err != nil {
			return errors.E(err, "ensure negative segment")
		}
		if err := store.InsertNegative(ctx, tx, overlapID, negSegID); err != nil {
			return errors.E(err, "insert negative")
		}
	}
	return nil
}
