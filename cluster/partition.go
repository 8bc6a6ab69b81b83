package cluster

import (
	"math"
	"sort"

	"github.com/johnwilmes/kgenealogic/graph"
	"github.com/johnwilmes/kgenealogic/kit"
)

// Label is a branch assignment: paternal, maternal, or unassigned.
type Label string

const (
	LabelPaternal Label = "P"
	LabelMaternal Label = "M"
	LabelNone     Label = ""
)

// Assignment is one (kit, label, confidence) result of a Partitioner.
type Assignment struct {
	Kit        kit.ID
	Label      Label
	Confidence float64
}

// Options controls both the recursive engine (cluster.Run) and the default
// partitioner's iteration cap.
type Options struct {
	// MaxRounds bounds the greedy relaxation loop. Zero selects the default
	// of 2*|labels|.
	MaxRounds int
	// FixSeeds, when true, never lets an already-labeled seed vertex be
	// reassigned during label propagation.
	FixSeeds bool
	// Partitioner selects the bipartitioning algorithm; nil selects
	// LabelPropagation{}.
	Partitioner Partitioner
}

func (o Options) partitioner() Partitioner {
	if o.Partitioner != nil {
		return o.Partitioner
	}
	return LabelPropagation{}
}

// Partitioner assigns P/M/"" labels (with confidence) to every vertex of g
// reachable from a seed, given a seed-label assignment. LabelPropagation is
// the default; SpectralMinCut is an alternate behind the same interface.
type Partitioner interface {
	Partition(g *graph.Graph, seeds map[kit.ID]Label, opts Options) []Assignment
}

// LabelPropagation is iterative, confidence-greedy constrained label
// propagation over a signed-weight graph: each round, the unassigned (or
// contradicted) vertex with the highest confidence takes the label its
// signed neighbor weights favor. There is no convergence proof for signed
// topologies, so the loop is capped; in practice it terminates well before
// the cap.
type LabelPropagation struct{}

type vertexState struct {
	weight float64
	label  Label
}

// Partition implements the Partitioner interface.
func (LabelPropagation) Partition(g *graph.Graph, seeds map[kit.ID]Label, opts Options) []Assignment {
	labels := make(map[kit.ID]*vertexState)
	for _, k1 := range g.Vertices() {
		w := 0.0
		for _, weight := range g.Neighbors(k1) {
			w += math.Abs(weight)
		}
		labels[k1] = &vertexState{weight: w, label: seeds[k1]}
	}

	order := make([]kit.ID, 0, len(labels))
	for k := range labels {
		order = append(order, k)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 2 * len(labels)
	}

	for round := 0; round < maxRounds; round++ {
		if !relax(g, labels, order, seeds, opts.FixSeeds) {
			break
		}
	}

	out := make([]Assignment, 0, len(labels)+len(seeds))
	for _, k := range order {
		st := labels[k]
		paternal, _ := segSums(g, labels, k)
		conf := 0.0
		if st.weight > 0 {
			conf = math.Abs(paternal) / st.weight
		}
		out = append(out, Assignment{Kit: k, Label: st.label, Confidence: conf})
	}
	// Union in seeds that never appeared as a vertex with a qualifying
	// edge.
	for _, k := range sortedLabelKeys(seeds) {
		if _, ok := labels[k]; !ok {
			out = append(out, Assignment{Kit: k, Label: seeds[k], Confidence: 1})
		}
	}
	return out
}

// segSums computes seg_sum_P - seg_sum_M ("paternal") for vertex k1, and
// also returns the raw seg_sum_P, which current callers ignore.
func segSums(g *graph.Graph, labels map[kit.ID]*vertexState, k1 kit.ID) (paternal, segP float64) {
	segM := 0.0
	for k2, w := range g.Neighbors(k1) {
		if st2, ok := labels[k2]; ok {
			switch st2.label {
			case LabelPaternal:
				segP += w
			case LabelMaternal:
				segM += w
			}
		}
	}
	return segP - segM, segP
}

// relax performs one propagation round: find the available vertex of
// maximum confidence and update its label. Returns false if no vertex was
// available (the loop's termination condition).
func relax(g *graph.Graph, labels map[kit.ID]*vertexState, order []kit.ID, seeds map[kit.ID]Label, fixSeeds bool) bool {
	var best kit.ID
	bestConf := -1.0
	var bestPaternal float64
	found := false

	for _, k1 := range order {
		st := labels[k1]
		if st.weight <= 0 {
			continue
		}
		paternal, _ := segSums(g, labels, k1)
		confidence := math.Abs(paternal) / st.weight
		if confidence <= 0 {
			continue
		}
		available := st.label == LabelNone ||
			(st.label == LabelPaternal && paternal < 0) ||
			(st.label == LabelMaternal && paternal > 0)
		if !available {
			continue
		}
		if fixSeeds {
			if _, isSeed := seeds[k1]; isSeed {
				continue
			}
		}
		if confidence > bestConf {
			bestConf, best, bestPaternal, found = confidence, k1, paternal, true
		}
	}
	if !found {
		return false
	}
	if bestPaternal > 0 {
		labels[best].label = LabelPaternal
	} else {
		labels[best].label = LabelMaternal
	}
	return true
}

func sortedLabelKeys(m map[kit.ID]Label) []kit.ID {
	out := make([]kit.ID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
