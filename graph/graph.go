// Package graph assembles an undirected signed weighted graph over kits
// from matches, positive triangles and, on demand, negative triangles.
// Rows are pulled from the store and aggregated in process.
package graph

import (
	"context"

	"github.com/grailbio/base/errors"

	"github.com/johnwilmes/kgenealogic/kit"
	"github.com/johnwilmes/kgenealogic/store"
)

// PairwiseFactor scales base pairwise-match weight before triangle
// contributions (which carry weight 1) are added.
const PairwiseFactor = 0.25

// Edge is one directed half-edge (kit1, kit2, weight). A weighted graph is
// a set of half-edges in both directions.
type Edge struct {
	Kit1, Kit2 kit.ID
	Weight     float64
}

// Graph is an adjacency-list view of a set of half-edges, keyed by Kit1.
type Graph struct {
	edges map[kit.ID]map[kit.ID]float64
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{edges: make(map[kit.ID]map[kit.ID]float64)}
}

// Add accumulates weight onto the directed edge (a, b).
func (g *Graph) Add(a, b kit.ID, weight float64) {
	if weight == 0 {
		return
	}
	if g.edges[a] == nil {
		g.edges[a] = make(map[kit.ID]float64)
	}
	g.edges[a][b] += weight
}

// Weight returns the current accumulated weight of (a, b), 0 if absent.
func (g *Graph) Weight(a, b kit.ID) float64 {
	return g.edges[a][b]
}

// Neighbors returns every kit2 with a nonzero edge from a.
func (g *Graph) Neighbors(a kit.ID) map[kit.ID]float64 {
	return g.edges[a]
}

// Vertices returns every kit appearing as kit1 in at least one half-edge.
func (g *Graph) Vertices() []kit.ID {
	out := make([]kit.ID, 0, len(g.edges))
	for k := range g.edges {
		out = append(out, k)
	}
	return out
}

// AllVertices returns every kit appearing as either endpoint of a half-edge,
// the vertex set the spectral partitioner's adjacency matrix is built over.
func (g *Graph) AllVertices() []kit.ID {
	seen := make(map[kit.ID]bool)
	for a, nbrs := range g.edges {
		seen[a] = true
		for b := range nbrs {
			seen[b] = true
		}
	}
	out := make([]kit.ID, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	return out
}

// Restrict returns a copy of g containing only half-edges with both
// endpoints in keep.
func (g *Graph) Restrict(keep map[kit.ID]bool) *Graph {
	out := New()
	for a, nbrs := range g.edges {
		if !keep[a] {
			continue
		}
		for b, w := range nbrs {
			if keep[b] {
				out.Add(a, b, w)
			}
		}
	}
	return out
}

// Clone returns an independent copy of g, so callers (e.g. the Cluster
// Engine mixing in negative edges per seed) can mutate the copy without
// affecting the base graph used elsewhere.
func (g *Graph) Clone() *Graph {
	out := New()
	for a, nbrs := range g.edges {
		for b, w := range nbrs {
			out.Add(a, b, w)
		}
	}
	return out
}

// Merge adds every half-edge of other into g.
func (g *Graph) Merge(other *Graph) {
	for a, nbrs := range other.edges {
		for b, w := range nbrs {
			g.Add(a, b, w)
		}
	}
}

// Build assembles the base graph: pairwise match weight scaled by
// PairwiseFactor, plus triangle contributions, filtered by minLength and
// excluding any triangle row whose kit3 is in exclude.
func Build(ctx context.Context, q store.Queryer, minLength float64, exclude map[kit.ID]bool) (*Graph, error) {
	g := New()

	matches, err := store.AllMatchEdges(ctx, q)
	if err != nil {
		return nil, errors.E(err, "graph: load match edges")
	}
	for _, m := range matches {
		if m.Segment.Length == nil || *m.Segment.Length < minLength {
			continue
		}
		if m.Kit1 == m.Kit2 {
			continue
		}
		g.Add(m.Kit1, m.Kit2, PairwiseFactor*(*m.Segment.Length))
	}

	triangles, err := store.AllTriangleEdges(ctx, q)
	if err != nil {
		return nil, errors.E(err, "graph: load triangle edges")
	}
	for _, t := range triangles {
		if t.Segment.Length == nil || *t.Segment.Length < minLength {
			continue
		}
		if t.Kit1 == t.Kit2 {
			continue
		}
		if exclude[t.Kit3] {
			continue
		}
		g.Add(t.Kit1, t.Kit2, *t.Segment.Length)
	}

	return g, nil
}

// NegativeEdges computes the signed negative-weight edges for source s: for
// every (target1, target2) pair with an overlap row under s, the negated
// sum of negative-segment lengths at minLength or above.
func NegativeEdges(ctx context.Context, q store.Queryer, source kit.ID, minLength float64) (*Graph, error) {
	g := New()
	overlaps, _, err := store.OverlapsBySource(ctx, q, source)
	if err != nil {
		return nil, errors.E(err, "graph: load overlaps")
	}
	for _, o := range overlaps {
		if o.Target1 == o.Target2 {
			continue
		}
		negs, err := store.NegativesByOverlap(ctx, q, o.ID)
		if err != nil {
			return nil, errors.E(err, "graph: load negative segments")
		}
		var sum float64
		for _, n := range negs {
			if n.Length == nil || *n.Length < minLength {
				continue
			}
			sum += *n.Length
		}
		if sum > 0 {
			g.Add(o.Target1, o.Target2, -sum)
		}
	}
	return g, nil
}
