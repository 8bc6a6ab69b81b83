package negative

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwilmes/kgenealogic/ingest"
	"github.com/johnwilmes/kgenealogic/kit"
	"github.com/johnwilmes/kgenealogic/store"
)

func openTest(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func f(v float64) *float64 { return &v }

// TestBuildSplitsOverlapAroundPositive runs the builder end to end: source
// 10 matches 20 and 21 on chr 5, with a single positive triangle covering
// [600,700) of their overlap; the negative builder must emit [500,600) and
// [700,1000) as negative intervals.
func TestBuildSplitsOverlapAroundPositive(t *testing.T) {
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

	kits, err := store.AllKits(ctx, s.DB())
	require.NoError(t, err)
	var source int64 = -1
	for _, k := range kits {
		if k.KitID == "10" {
			source = int64(k.ID)
		}
	}
	require.NotEqual(t, int64(-1), source)

	ok, err := Build(ctx, s, kit.ID(source))
	require.NoError(t, err)
	require.True(t, ok)

	overlaps, segs, err := store.OverlapsBySource(ctx, s.DB(), kit.ID(source))
	require.NoError(t, err)
	require.Len(t, overlaps, 2, "both (20,21) and (21,20) orderings are materialized")

	seen := map[[2]int64]bool{}
	for i, o := range overlaps {
		assert.Equal(t, "5", segs[i].Chromosome)
		assert.Equal(t, int64(500), segs[i].Start)
		assert.Equal(t, int64(1000), segs[i].End)

		negs, err := store.NegativesByOverlap(ctx, s.DB(), o.ID)
		require.NoError(t, err)
		require.Len(t, negs, 2)
		var starts []int64
		for _, n := range negs {
			starts = append(starts, n.Start)
		}
		assert.ElementsMatch(t, []int64{500, 700}, starts)
		seen[[2]int64{int64(o.Target1), int64(o.Target2)}] = true
	}
	assert.Len(t, seen, 2)
}

func TestBuildInsufficientData(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := ingest.ImportMatches(ctx, s, []ingest.MatchRow{
		{Kit1: "A", Kit2: "B", Chromosome: "1", Start: 0, End: 100, Length: f(10)},
	})
	require.NoError(t, err)

	kits, err := store.AllKits(ctx, s.DB())
	require.NoError(t, err)
	var source int64
	for _, k := range kits {
		if k.KitID == "A" {
			source = int64(k.ID)
		}
	}

	ok, err := Build(ctx, s, kit.ID(source))
	require.NoError(t, err)
	assert.False(t, ok, "no triangle data yet: insufficient data")
}

func TestBuildIdempotentUntilStale(t *testing.T) {
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

	kits, err := store.AllKits(ctx, s.DB())
	require.NoError(t, err)
	var source int64
	for _, k := range kits {
		if k.KitID == "10" {
			source = int64(k.ID)
		}
	}

	ok1, err := Build(ctx, s, kit.ID(source))
	require.NoError(t, err)
	require.True(t, ok1)
	src1, _, err := store.GetSource(ctx, s.DB(), kit.ID(source))
	require.NoError(t, err)

	ok2, err := Build(ctx, s, kit.ID(source))
	require.NoError(t, err)
	require.True(t, ok2)
	src2, _, err := store.GetSource(ctx, s.DB(), kit.ID(source))
	require.NoError(t, err)
	assert.Equal(t, *src1.Negative, *src2.Negative, "second build must be a no-op on the watermark")

	_, err = ingest.ImportTriangles(ctx, s, []ingest.TriangleRow{
		{Kit1: "10", Kit2: "20", Kit3: "21", Chromosome: "6", Start: 0, End: 10, Length: f(1)},
	})
	require.NoError(t, err)
	ok3, err := Build(ctx, s, kit.ID(source))
	require.NoError(t, err)
	require.True(t, ok3)
	src3, _, err := store.GetSource(ctx, s.DB(), kit.ID(source))
	require.NoError(t, err)
	assert.Greater(t, *src3.Negative, *src2.Negative, "new triangle batch must make the cache stale again")
}
