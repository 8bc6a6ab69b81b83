package cluster

import (
	"context"

	"github.com/grailbio/base/errors"

	"github.com/johnwilmes/kgenealogic/kit"
	"github.com/johnwilmes/kgenealogic/segment"
	"github.com/johnwilmes/kgenealogic/store"
)

// ExpandAutoX applies auto-X expansion: for every seed in root (at any
// depth) with AutoX set, every kit that matches it on chromosome X at
// minLength or above -- excluding already-excluded kits and kits already
// declared as a seed anywhere in the tree -- is added as an additional
// floating seed under that node's Maternal child (created if absent). A
// male kit inherits its single X from its mother, so an X match to such a
// kit is necessarily maternal.
func ExpandAutoX(ctx context.Context, q store.Queryer, root *SeedTree, minLength float64, excluded map[kit.ID]bool) error {
	existing := make(map[kit.ID]bool)
	collectSeeds(root, existing)
	return expandAutoX(ctx, q, root, minLength, excluded, existing)
}

func collectSeeds(t *SeedTree, out map[kit.ID]bool) {
	if t == nil {
		return
	}
	for _, s := range t.Seeds {
		out[s.Kit] = true
	}
	collectSeeds(t.Paternal, out)
	collectSeeds(t.Maternal, out)
}

func expandAutoX(ctx context.Context, q store.Queryer, t *SeedTree, minLength float64, excluded, existing map[kit.ID]bool) error {
	if t == nil {
		return nil
	}
	for _, s := range t.Seeds {
		if !s.AutoX {
			continue
		}
		matches, err := store.MatchesBySource(ctx, q, s.Kit, nil)
		if err != nil {
			return errors.E(err, "cluster: auto-x load matches")
		}
		var added []kit.ID
		for _, m := range matches {
			if m.Segment.Chromosome != segment.ChromosomeX {
				continue
			}
			if m.Segment.Length == nil || *m.Segment.Length < minLength {
				continue
			}
			k2 := m.Kit2
			if excluded[k2] || existing[k2] {
				continue
			}
			existing[k2] = true
			added = append(added, k2)
		}
		if len(added) > 0 {
			child := t.Child(false) // maternal
			for _, k2 := range added {
				child.Seeds = append(child.Seeds, Seed{Kit: k2, Floating: true})
			}
		}
	}
	if err := expandAutoX(ctx, q, t.Paternal, minLength, excluded, existing); err != nil {
		return err
	}
	return expandAutoX(ctx, q, t.Maternal, minLength, excluded, existing)
}
