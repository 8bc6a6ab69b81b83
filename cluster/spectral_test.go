package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johnwilmes/kgenealogic/graph"
	"github.com/johnwilmes/kgenealogic/kit"
)

// TestSpectralMinCutBarbell splits two triangles joined by a weak bridge at
// the bridge, the minimum cut.
func TestSpectralMinCutBarbell(t *testing.T) {
	g := graph.New()
	// Heavy triangle {1,2,3}.
	addUndirected(g, 1, 2, 10)
	addUndirected(g, 2, 3, 10)
	addUndirected(g, 1, 3, 10)
	// Light triangle {4,5,6}.
	addUndirected(g, 4, 5, 1)
	addUndirected(g, 5, 6, 1)
	addUndirected(g, 4, 6, 1)
	// Bridge.
	addUndirected(g, 3, 4, 0.1)

	out := SpectralMinCut{}.Partition(g,
		map[kit.ID]Label{1: LabelPaternal, 4: LabelMaternal}, Options{})

	for _, k := range []kit.ID{1, 2, 3} {
		assert.Equal(t, LabelPaternal, assignmentFor(t, out, k).Label, "kit %d", k)
	}
	for _, k := range []kit.ID{4, 5, 6} {
		assert.Equal(t, LabelMaternal, assignmentFor(t, out, k).Label, "kit %d", k)
	}
}

// TestSpectralMinCutComponents labels each connected component separately; a
// component with only one seed ends up entirely on that seed's side.
func TestSpectralMinCutComponents(t *testing.T) {
	g := graph.New()
	addUndirected(g, 1, 2, 5)
	addUndirected(g, 8, 9, 5)

	out := SpectralMinCut{}.Partition(g,
		map[kit.ID]Label{1: LabelPaternal, 8: LabelMaternal}, Options{})

	assert.Equal(t, LabelPaternal, assignmentFor(t, out, 2).Label)
	assert.Equal(t, LabelMaternal, assignmentFor(t, out, 9).Label)
}

// TestSpectralMinCutIsolatedSeed mirrors the label-propagation contract: a
// seed absent from the graph still appears in the output.
func TestSpectralMinCutIsolatedSeed(t *testing.T) {
	g := graph.New()
	addUndirected(g, 1, 2, 5)

	out := SpectralMinCut{}.Partition(g,
		map[kit.ID]Label{1: LabelPaternal, 9: LabelMaternal}, Options{})

	assert.Equal(t, LabelMaternal, assignmentFor(t, out, 9).Label)
}

// TestRunWithSpectralPartitioner swaps the partitioner behind Options and
// re-runs the two-sided split end to end.
func TestRunWithSpectralPartitioner(t *testing.T) {
	g := graph.New()
	addUndirected(g, 1, 3, 10)
	addUndirected(g, 2, 4, 8)
	addUndirected(g, 3, 4, 0.5)

	tree := NewSeedTree()
	tree.Child(true).Seeds = []Seed{{Kit: 1, Floating: true}}
	tree.Child(false).Seeds = []Seed{{Kit: 2, Floating: true}}

	table, err := Run([]kit.ID{1, 2, 3, 4}, tree, g, noNegatives,
		Options{Partitioner: SpectralMinCut{}})
	assert.NoError(t, err)

	assert.Equal(t, LabelPaternal, rowFor(t, table, 3).Label(0))
	assert.Equal(t, LabelMaternal, rowFor(t, table, 4).Label(0))
}
