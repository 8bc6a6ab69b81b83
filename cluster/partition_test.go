package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwilmes/kgenealogic/graph"
	"github.com/johnwilmes/kgenealogic/kit"
)

func assignmentFor(t *testing.T, out []Assignment, k kit.ID) Assignment {
	t.Helper()
	for _, a := range out {
		if a.Kit == k {
			return a
		}
	}
	t.Fatalf("kit %d not in assignments", k)
	return Assignment{}
}

func TestLabelPropagationWeightedMajority(t *testing.T) {
	// B sits between seeds A (P) and C (M) with a 10-vs-2 weight imbalance.
	g := graph.New()
	addUndirected(g, 1, 2, 10) // A-B
	addUndirected(g, 2, 3, 2)  // B-C

	out := LabelPropagation{}.Partition(g,
		map[kit.ID]Label{1: LabelPaternal, 3: LabelMaternal}, Options{FixSeeds: true})

	b := assignmentFor(t, out, 2)
	assert.Equal(t, LabelPaternal, b.Label)
	assert.InDelta(t, 8.0/12.0, b.Confidence, 1e-9)
}

func TestLabelPropagationNegativeWeightRepels(t *testing.T) {
	// B's only evidence is a negative edge to the P seed: disconfirming
	// triangulation pushes it to the opposite branch.
	g := graph.New()
	addUndirected(g, 1, 2, -5)

	out := LabelPropagation{}.Partition(g, map[kit.ID]Label{1: LabelPaternal}, Options{})

	b := assignmentFor(t, out, 2)
	assert.Equal(t, LabelMaternal, b.Label)
	assert.InDelta(t, 1.0, b.Confidence, 1e-9)
}

func TestLabelPropagationMaxRoundsCap(t *testing.T) {
	// Chain A(P) - B - C: B labels on round one, C needs a second round.
	g := graph.New()
	addUndirected(g, 1, 2, 1)
	addUndirected(g, 2, 3, 1)

	seeds := map[kit.ID]Label{1: LabelPaternal}

	capped := LabelPropagation{}.Partition(g, seeds, Options{MaxRounds: 1})
	assert.Equal(t, LabelNone, assignmentFor(t, capped, 3).Label)

	full := LabelPropagation{}.Partition(g, seeds, Options{})
	assert.Equal(t, LabelPaternal, assignmentFor(t, full, 3).Label)
}

func TestLabelPropagationFixSeeds(t *testing.T) {
	// Two seeds whose only evidence is each other would flip without
	// FixSeeds; with it, both hold their assigned labels.
	g := graph.New()
	addUndirected(g, 1, 2, 5)

	seeds := map[kit.ID]Label{1: LabelPaternal, 2: LabelMaternal}
	out := LabelPropagation{}.Partition(g, seeds, Options{FixSeeds: true})

	assert.Equal(t, LabelPaternal, assignmentFor(t, out, 1).Label)
	assert.Equal(t, LabelMaternal, assignmentFor(t, out, 2).Label)
}

func TestLabelPropagationIsolatedSeedUnion(t *testing.T) {
	// Seed 9 has no qualifying edges at all; it must still appear in the
	// output with its seed label.
	g := graph.New()
	addUndirected(g, 1, 2, 5)

	out := LabelPropagation{}.Partition(g,
		map[kit.ID]Label{1: LabelPaternal, 9: LabelMaternal}, Options{})

	s := assignmentFor(t, out, 9)
	assert.Equal(t, LabelMaternal, s.Label)
	assert.Equal(t, 1.0, s.Confidence)
}

func TestLabelPropagationUnreachableVertexUnlabeled(t *testing.T) {
	// A component with no seed stays entirely unlabeled.
	g := graph.New()
	addUndirected(g, 1, 2, 5)
	addUndirected(g, 8, 9, 5)

	out := LabelPropagation{}.Partition(g, map[kit.ID]Label{1: LabelPaternal}, Options{})

	require.Equal(t, LabelPaternal, assignmentFor(t, out, 2).Label)
	assert.Equal(t, LabelNone, assignmentFor(t, out, 8).Label)
	assert.Equal(t, LabelNone, assignmentFor(t, out, 9).Label)
}
