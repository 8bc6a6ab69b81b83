package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwilmes/kgenealogic/ingest"
	"github.com/johnwilmes/kgenealogic/kit"
	"github.com/johnwilmes/kgenealogic/negative"
	"github.com/johnwilmes/kgenealogic/store"
)

func f(v float64) *float64 { return &v }

func openTest(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func kitByName(t *testing.T, s *store.Store, name string) kit.ID {
	t.Helper()
	kits, err := store.AllKits(context.Background(), s.DB())
	require.NoError(t, err)
	for _, k := range kits {
		if k.KitID == name {
			return k.ID
		}
	}
	t.Fatalf("kit %q not found", name)
	return 0
}

// TestMinLengthThreshold: with min_length=7.0, a 6.99cM segment contributes
// nothing and a 7.00cM segment contributes its full weight (the threshold
// is inclusive).
func TestMinLengthThreshold(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := ingest.ImportMatches(ctx, s, []ingest.MatchRow{
		{Kit1: "A", Kit2: "B", Chromosome: "1", Start: 0, End: 100, Length: f(6.99)},
		{Kit1: "A", Kit2: "C", Chromosome: "2", Start: 0, End: 100, Length: f(7.00)},
	})
	require.NoError(t, err)

	a, b, c := kitByName(t, s, "A"), kitByName(t, s, "B"), kitByName(t, s, "C")

	g, err := Build(ctx, s.DB(), 7.0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, g.Weight(a, b), "below-threshold segment must not contribute")
	assert.Equal(t, PairwiseFactor*7.00, g.Weight(a, c))
}

// TestExcludedKit3 checks that a triangle whose kit3 is excluded
// contributes zero weight to any edge.
func TestExcludedKit3(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := ingest.ImportTriangles(ctx, s, []ingest.TriangleRow{
		{Kit1: "A", Kit2: "B", Kit3: "99", Chromosome: "1", Start: 0, End: 100, Length: f(10)},
	})
	require.NoError(t, err)

	a, b := kitByName(t, s, "A"), kitByName(t, s, "B")
	k99 := kitByName(t, s, "99")

	excluded, err := Build(ctx, s.DB(), 7.0, map[kit.ID]bool{k99: true})
	require.NoError(t, err)
	assert.Equal(t, 0.0, excluded.Weight(a, b))

	included, err := Build(ctx, s.DB(), 7.0, nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, included.Weight(a, b))
}

func TestNegativeEdgesSigned(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := ingest.ImportMatches(ctx, s, []ingest.MatchRow{
		{Kit1: "10", Kit2: "20", Chromosome: "5", Start: 0, End: 1000, Length: f(15)},
		{Kit1: "10", Kit2: "21", Chromosome: "5", Start: 500, End: 1500, Length: f(15)},
	})
	require.NoError(t, err)
	_, err = ingest.ImportTriangles(ctx, s, []ingest.TriangleRow{
		{Kit1: "10", Kit2: "20", Kit3: "21", Chromosome: "5", Start: 600, End: 700, Length: f(2)},
	})
	require.NoError(t, err)

	source := kitByName(t, s, "10")
	k20, k21 := kitByName(t, s, "20"), kitByName(t, s, "21")

	ok, err := negative.Build(ctx, s, source)
	require.NoError(t, err)
	require.True(t, ok)

	neg, err := NegativeEdges(ctx, s.DB(), source, 0)
	require.NoError(t, err)
	assert.Less(t, neg.Weight(k20, k21), 0.0, "negative edges must carry negative weight")
}

func TestRestrict(t *testing.T) {
	g := New()
	g.Add(1, 2, 5)
	g.Add(2, 3, 7)
	r := g.Restrict(map[kit.ID]bool{1: true, 2: true})
	assert.Equal(t, 5.0, r.Weight(1, 2))
	assert.Equal(t, 0.0, r.Weight(2, 3))
}
