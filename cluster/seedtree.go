// Package cluster partitions a population of kits into the branches of a
// user-specified family tree: the SeedTree configuration structure,
// recursive seeded bipartitioning, and the two interchangeable partitioners
// (label propagation and spectral min-cut) that assign each remaining kit a
// branch label at every level.
package cluster

import "github.com/johnwilmes/kgenealogic/kit"

// Seed is one kit pinned (or hinted) at a SeedTree node.
// AutoX is consumed only by ExpandAutoX, never by Run: once auto-X
// expansion has added its floating maternal seeds, the flag has no further
// effect on partitioning.
type Seed struct {
	Kit      kit.ID
	Floating bool
	Negative bool
	AutoX    bool
}

// SeedTree is one node of the recursive ahnentafel tree: an ahnentafel
// integer (root = 1), the Seeds declared at this node, and up to two
// children under Paternal/Maternal.
type SeedTree struct {
	Ahnentafel int64
	Seeds      []Seed
	Paternal   *SeedTree
	Maternal   *SeedTree
}

// NewSeedTree returns the root of a SeedTree (ahnentafel 1).
func NewSeedTree() *SeedTree {
	return &SeedTree{Ahnentafel: 1}
}

// Child returns (creating it if necessary) the paternal or maternal child
// of t, with the correct ahnentafel (2a for paternal, 2a+1 for maternal).
func (t *SeedTree) Child(paternal bool) *SeedTree {
	if paternal {
		if t.Paternal == nil {
			t.Paternal = &SeedTree{Ahnentafel: 2 * t.Ahnentafel}
		}
		return t.Paternal
	}
	if t.Maternal == nil {
		t.Maternal = &SeedTree{Ahnentafel: 2*t.Ahnentafel + 1}
	}
	return t.Maternal
}

// Flatten returns every Seed in t and its descendants, depth-first with
// children before a node's own values.
func (t *SeedTree) Flatten() []Seed {
	var out []Seed
	t.flattenInto(&out)
	return out
}

func (t *SeedTree) flattenInto(out *[]Seed) {
	if t == nil {
		return
	}
	t.Paternal.flattenInto(out)
	t.Maternal.flattenInto(out)
	*out = append(*out, t.Seeds...)
}

// FindSeed returns the ahnentafel of the node at or below t where k is
// declared as a Seed, and true if found. Used to populate the output
// table's "seed" column.
func (t *SeedTree) FindSeed(k kit.ID) (int64, bool) {
	if t == nil {
		return 0, false
	}
	for _, s := range t.Seeds {
		if s.Kit == k {
			return t.Ahnentafel, true
		}
	}
	if a, ok := t.Paternal.FindSeed(k); ok {
		return a, true
	}
	return t.Maternal.FindSeed(k)
}
