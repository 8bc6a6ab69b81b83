package config

import (
	"context"

	"github.com/grailbio/base/errors"

	"github.com/johnwilmes/kgenealogic/cluster"
	"github.com/johnwilmes/kgenealogic/kit"
	"github.com/johnwilmes/kgenealogic/store"
)

// Resolved is a Raw configuration with every kit id looked up against the
// store, ready to drive graph.Build and cluster.Run.
type Resolved struct {
	MinLength float64
	Exclude   map[kit.ID]bool
	Universe  []kit.ID
	Tree      *cluster.SeedTree
}

// Resolve turns a parsed document into a runnable configuration: looking up
// every configured kit id, applying floating's triangulation-derived
// default, expanding autox seeds, computing the initial kit universe from
// include (or all kits), and removing excluded kits. It rejects documents
// where an id is both excluded and a seed, or a seed id is duplicated, so
// the cluster engine never sees either.
func Resolve(ctx context.Context, q store.Queryer, raw *Raw) (*Resolved, error) {
	lookup, err := kitLookup(ctx, q)
	if err != nil {
		return nil, err
	}

	seedIDs := make(map[string]bool)
	var duplicate error
	if err := validateSeeds(&raw.Tree, seedIDs, &duplicate); err != nil {
		return nil, err
	}
	if duplicate != nil {
		return nil, duplicate
	}

	excludeSet := make(map[kit.ID]bool, len(raw.Exclude))
	for _, kitid := range raw.Exclude {
		if seedIDs[kitid] {
			return nil, errors.New("config: excluded kit " + kitid + " is listed as a seed")
		}
		id, ok := lookup[kitid]
		if !ok {
			return nil, errors.New("config: unknown excluded kit id " + kitid)
		}
		excludeSet[id] = true
	}

	tree, err := buildTree(ctx, &raw.Tree, 1, lookup, q)
	if err != nil {
		return nil, err
	}

	if err := cluster.ExpandAutoX(ctx, q, tree, *raw.MinLength, excludeSet); err != nil {
		return nil, err
	}

	universe, err := resolveUniverse(ctx, q, raw, lookup, tree, excludeSet)
	if err != nil {
		return nil, err
	}

	return &Resolved{
		MinLength: *raw.MinLength,
		Exclude:   excludeSet,
		Universe:  universe,
		Tree:      tree,
	}, nil
}

func kitLookup(ctx context.Context, q store.Queryer) (map[string]kit.ID, error) {
	kits, err := store.AllKits(ctx, q)
	if err != nil {
		return nil, errors.E(err, "config: load kits")
	}
	out := make(map[string]kit.ID, len(kits))
	for _, k := range kits {
		out[k.KitID] = k.ID
	}
	return out, nil
}

func validateSeeds(t *Tree, seen map[string]bool, firstErr *error) error {
	if t == nil {
		return nil
	}
	for _, k := range t.Kits {
		if seen[k.ID] {
			if *firstErr == nil {
				*firstErr = errors.New("config: duplicated seed " + k.ID)
			}
			continue
		}
		seen[k.ID] = true
	}
	if err := validateSeeds(t.Maternal, seen, firstErr); err != nil {
		return err
	}
	return validateSeeds(t.Paternal, seen, firstErr)
}

// buildTree converts a config.Tree into a cluster.SeedTree, resolving kit
// ids and applying the floating default: floating unless the kit has
// triangulation data as a source, i.e. source.triangle is set.
func buildTree(ctx context.Context, t *Tree, ahnentafel int64, lookup map[string]kit.ID, q store.Queryer) (*cluster.SeedTree, error) {
	node := &cluster.SeedTree{Ahnentafel: ahnentafel}
	for _, k := range t.Kits {
		id, ok := lookup[k.ID]
		if !ok {
			return nil, errors.New("config: unknown seed kit id " + k.ID)
		}
		floating := true
		if k.Float != nil {
			floating = *k.Float
		} else {
			src, found, err := store.GetSource(ctx, q, id)
			if err != nil {
				return nil, errors.E(err, "config: load source watermarks for seed")
			}
			if found && src.Triangle != nil {
				floating = false
			}
		}
		node.Seeds = append(node.Seeds, cluster.Seed{Kit: id, Floating: floating, Negative: k.Negative, AutoX: k.AutoX})
	}
	if t.Paternal != nil {
		child, err := buildTree(ctx, t.Paternal, 2*ahnentafel, lookup, q)
		if err != nil {
			return nil, err
		}
		node.Paternal = child
	}
	if t.Maternal != nil {
		child, err := buildTree(ctx, t.Maternal, 2*ahnentafel+1, lookup, q)
		if err != nil {
			return nil, err
		}
		node.Maternal = child
	}
	return node, nil
}

// resolveUniverse computes the kit population to cluster: every kit
// referenced by include (optionally expanded by matches >= L /
// triangles >= L neighbors) union every seed, or every kit in the store if
// include is empty; then excluded kits are removed.
func resolveUniverse(ctx context.Context, q store.Queryer, raw *Raw, lookup map[string]kit.ID, tree *cluster.SeedTree, excluded map[kit.ID]bool) ([]kit.ID, error) {
	universe := make(map[kit.ID]bool)

	if len(raw.Include) == 0 {
		all, err := store.AllKits(ctx, q)
		if err != nil {
			return nil, errors.E(err, "config: load all kits")
		}
		for _, k := range all {
			universe[k.ID] = true
		}
	} else {
		for _, inc := range raw.Include {
			id, ok := lookup[inc.ID]
			if !ok {
				return nil, errors.New("config: unknown include kit id " + inc.ID)
			}
			universe[id] = true
			if inc.Matches != nil {
				matches, err := store.MatchesBySource(ctx, q, id, nil)
				if err != nil {
					return nil, errors.E(err, "config: load include matches")
				}
				for _, m := range matches {
					if m.Segment.Length != nil && *m.Segment.Length >= *inc.Matches {
						universe[m.Kit2] = true
					}
				}
			}
			if inc.Triangles != nil {
				if err := addTriangleNeighbors(ctx, q, id, *inc.Triangles, universe); err != nil {
					return nil, err
				}
			}
		}
		for _, s := range collectAllSeeds(tree) {
			universe[s] = true
		}
	}

	for id := range excluded {
		delete(universe, id)
	}

	out := make([]kit.ID, 0, len(universe))
	for id := range universe {
		out = append(out, id)
	}
	return out, nil
}

// addTriangleNeighbors adds every kit2 participating in a triangle row
// (kit1=source, kit2=*, kit3=any) whose segment length is at least
// minLength.
func addTriangleNeighbors(ctx context.Context, q store.Queryer, source kit.ID, minLength float64, universe map[kit.ID]bool) error {
	edges, err := store.AllTriangleEdges(ctx, q)
	if err != nil {
		return errors.E(err, "config: load triangle edges")
	}
	for _, e := range edges {
		if e.Kit1 != source {
			continue
		}
		if e.Segment.Length == nil || *e.Segment.Length < minLength {
			continue
		}
		universe[e.Kit2] = true
	}
	return nil
}

func collectAllSeeds(t *cluster.SeedTree) []kit.ID {
	var out []kit.ID
	for _, s := range t.Flatten() {
		out = append(out, s.Kit)
	}
	return out
}
