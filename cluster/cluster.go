package cluster

import (
	"sort"

	"github.com/johnwilmes/kgenealogic/graph"
	"github.com/johnwilmes/kgenealogic/kit"
)

// LabelConfidence is one depth's (label, confidence) pair for a kit, one
// label<n>/confidence<n> column pair of the output table.
type LabelConfidence struct {
	Label      Label
	Confidence float64
}

// Row is one kit's full clustering result: its final ahnentafel position,
// the ahnentafel of the SeedTree node where it was declared a Seed (if
// any), and the label/confidence assigned at every depth it passed through.
type Row struct {
	Kit        kit.ID
	Ahnentafel *int64
	Seed       *int64
	Levels     map[int]LabelConfidence
}

// Label returns the label assigned at depth, or LabelNone if r was never
// processed at that depth.
func (r Row) Label(depth int) Label {
	if lc, ok := r.Levels[depth]; ok {
		return lc.Label
	}
	return LabelNone
}

// Confidence returns the confidence assigned at depth, or 0 if r was never
// processed at that depth.
func (r Row) Confidence(depth int) float64 {
	if lc, ok := r.Levels[depth]; ok {
		return lc.Confidence
	}
	return 0
}

// Table is the full result of a Run, one Row per kit in the population.
type Table []Row

// MaxDepth returns the highest depth index that appears in any Row, or -1
// if t is empty -- the number of labelD/confidenceD column pairs a caller
// rendering t needs is MaxDepth()+1.
func (t Table) MaxDepth() int {
	max := -1
	for _, r := range t {
		for d := range r.Levels {
			if d > max {
				max = d
			}
		}
	}
	return max
}

// NegativeSource resolves the signed negative-weight edges for a source
// kit -- ordinarily graph.NegativeEdges bound to a store handle and a
// min-length threshold via a closure.
type NegativeSource func(kit.ID) (*graph.Graph, error)

// Run walks tree from its root, assigning every kit in kits an ahnentafel
// position and a label/confidence at each depth it was partitioned at. g is
// the base (unsigned) graph from graph.Build; negSource supplies each
// negative seed's signed edges on demand.
func Run(kits []kit.ID, tree *SeedTree, g *graph.Graph, negSource NegativeSource, opts Options) (Table, error) {
	out := make(map[kit.ID]*Row)
	if err := run(kits, tree, g, negSource, opts, out); err != nil {
		return nil, err
	}

	ids := make([]kit.ID, 0, len(out))
	for k := range out {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	table := make(Table, 0, len(ids))
	for _, k := range ids {
		r := *out[k]
		if a, ok := tree.FindSeed(k); ok {
			r.Seed = &a
		}
		table = append(table, r)
	}
	return table, nil
}

func depthOf(ahnentafel int64) int {
	depth := 0
	for a := ahnentafel; a > 1; a >>= 1 {
		depth++
	}
	return depth
}

func ensureRow(out map[kit.ID]*Row, k kit.ID, ahnentafel int64) *Row {
	r, ok := out[k]
	if !ok {
		r = &Row{Kit: k, Levels: make(map[int]LabelConfidence)}
		out[k] = r
	}
	a := ahnentafel
	r.Ahnentafel = &a
	return r
}

// run is the recursive worker behind Run: mix in negative edges for this
// node's negative seeds, pin nonfloat seeds, partition the remainder when
// the node has children, and recurse into each child with the child subtree
// and the original, unsigned g. Negative edges never leak into descendant
// partitions; each node mixes in only its own seeds' negative evidence.
func run(kits []kit.ID, tree *SeedTree, g *graph.Graph, negSource NegativeSource, opts Options, out map[kit.ID]*Row) error {
	depth := depthOf(tree.Ahnentafel)

	triGraph := g.Clone()
	for _, s := range tree.Seeds {
		if s.Negative {
			neg, err := negSource(s.Kit)
			if err != nil {
				return err
			}
			triGraph.Merge(neg)
		}
	}

	nonfloat := make(map[kit.ID]bool)
	for _, s := range tree.Seeds {
		if !s.Floating {
			nonfloat[s.Kit] = true
		}
	}

	remaining := make([]kit.ID, 0, len(kits))
	keep := make(map[kit.ID]bool)
	for _, k := range kits {
		if nonfloat[k] {
			continue
		}
		remaining = append(remaining, k)
		keep[k] = true
	}
	restrictedG := g.Restrict(keep)
	triGraph = triGraph.Restrict(keep)

	hasChildren := tree.Paternal != nil || tree.Maternal != nil
	if hasChildren && len(remaining) > 0 && len(triGraph.Vertices()) > 0 {
		childSeeds := make(map[kit.ID]Label)
		if tree.Paternal != nil {
			for _, s := range tree.Paternal.Flatten() {
				childSeeds[s.Kit] = LabelPaternal
			}
		}
		if tree.Maternal != nil {
			for _, s := range tree.Maternal.Flatten() {
				childSeeds[s.Kit] = LabelMaternal
			}
		}

		assignments := opts.partitioner().Partition(triGraph, childSeeds, opts)
		assigned := make(map[kit.ID]Assignment, len(assignments))
		for _, a := range assignments {
			assigned[a.Kit] = a
		}

		byLabel := make(map[Label][]kit.ID)
		for _, k := range remaining {
			a, ok := assigned[k]
			if !ok || a.Label == LabelNone {
				// A kit with zero qualifying edges is not an error --
				// it stays at this node with label "".
				row := ensureRow(out, k, tree.Ahnentafel)
				row.Levels[depth] = LabelConfidence{Label: LabelNone, Confidence: 0}
				continue
			}
			ahn := 2 * tree.Ahnentafel
			if a.Label == LabelMaternal {
				ahn = 2*tree.Ahnentafel + 1
			}
			row := ensureRow(out, k, ahn)
			row.Levels[depth] = LabelConfidence{Label: a.Label, Confidence: a.Confidence}
			byLabel[a.Label] = append(byLabel[a.Label], k)
		}

		if tree.Paternal != nil {
			if err := run(byLabel[LabelPaternal], tree.Paternal, restrictedG, negSource, opts, out); err != nil {
				return err
			}
		}
		if tree.Maternal != nil {
			if err := run(byLabel[LabelMaternal], tree.Maternal, restrictedG, negSource, opts, out); err != nil {
				return err
			}
		}
	} else {
		for _, k := range remaining {
			ensureRow(out, k, tree.Ahnentafel)
		}
	}

	for k := range nonfloat {
		ensureRow(out, k, tree.Ahnentafel)
	}
	return nil
}
