package cluster

import (
	"math"
	"sort"

	"github.com/johnwilmes/kgenealogic/graph"
	"github.com/johnwilmes/kgenealogic/kit"
)

// SpectralMinCut is the alternate Partitioner: per connected component,
// order vertices by the principal eigenvector of the (possibly signed)
// adjacency matrix and pick the prefix cut of minimum crossing weight,
// trying both signs of the eigenvector and excluding cuts that would split
// existing seeds. A component without any seed is left unlabeled. Unlike
// LabelPropagation it always terminates, but it does
// not produce a meaningful per-vertex confidence, so every labeled vertex
// reports 1.
type SpectralMinCut struct{}

// Partition implements the Partitioner interface using the spectral
// min-cut algorithm instead of label propagation.
func (SpectralMinCut) Partition(g *graph.Graph, seeds map[kit.ID]Label, _ Options) []Assignment {
	verts := g.AllVertices()
	sort.Slice(verts, func(i, j int) bool { return verts[i] < verts[j] })
	n := len(verts)
	idx := make(map[kit.ID]int, n)
	for i, k := range verts {
		idx[k] = i
	}

	adj := newSquareMatrix(n)
	for _, k1 := range verts {
		for k2, w := range g.Neighbors(k1) {
			adj.set(idx[k1], idx[k2], w)
		}
	}

	labels := make([]Label, n)
	for k, l := range seeds {
		if i, ok := idx[k]; ok {
			labels[i] = l
		}
	}

	for _, members := range connectedComponents(adj) {
		partitionComponent(adj, members, labels)
	}

	out := make([]Assignment, 0, n+len(seeds))
	for i, k := range verts {
		conf := 0.0
		if labels[i] != LabelNone {
			conf = 1
		}
		out = append(out, Assignment{Kit: k, Label: labels[i], Confidence: conf})
	}
	for _, k := range sortedLabelKeys(seeds) {
		if _, ok := idx[k]; !ok {
			out = append(out, Assignment{Kit: k, Label: seeds[k], Confidence: 1})
		}
	}
	return out
}

// partitionComponent assigns P/M to every index in members (positions into
// adj) by ordering the component along its principal eigenvector and taking
// the cheapest prefix cut, mutating labels in place. members that are
// already seeded M or P are pinned to one end of the ordering so the
// minimum cut never separates a component's own seeds from their label.
func partitionComponent(adj *squareMatrix, members []int, labels []Label) {
	m := len(members)
	if m == 0 {
		return
	}
	sub := newSquareMatrix(m)
	for i, gi := range members {
		for j, gj := range members {
			sub.set(i, j, adj.get(gi, gj))
		}
	}

	mSeed := make([]bool, m)
	pSeed := make([]bool, m)
	nM, nP := 0, 0
	for i, gi := range members {
		switch labels[gi] {
		case LabelMaternal:
			mSeed[i] = true
			nM++
		case LabelPaternal:
			pSeed[i] = true
			nP++
		}
	}
	if nM == 0 && nP == 0 {
		return // no seed reaches this component: leave it unlabeled
	}

	eig := principalEigenvector(sub)

	best := math.Inf(1)
	var bestMaternal []int // indices into members assigned Maternal
	for _, sign := range []float64{1, -1} {
		scored := make([]float64, m)
		for i, v := range eig {
			scored[i] = sign * v
		}
		for i := range scored {
			if mSeed[i] {
				scored[i] = math.Inf(-1)
			}
			if pSeed[i] {
				scored[i] = math.Inf(1)
			}
		}
		order := make([]int, m)
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return scored[order[a]] < scored[order[b]] })

		cutSize := prefixCutSizes(sub, order)
		if nM > 0 {
			for i := 0; i < nM; i++ {
				cutSize[i] = math.Inf(1)
			}
		}
		if nP > 0 {
			for i := m + 1 - nP; i <= m; i++ {
				cutSize[i] = math.Inf(1)
			}
		}

		minVal, minIdx := math.Inf(1), 0
		for i, v := range cutSize {
			if v < minVal {
				minVal, minIdx = v, i
			}
		}
		if minVal < best {
			best = minVal
			bestMaternal = append([]int(nil), order[:minIdx]...)
		}
	}

	isMaternal := make([]bool, m)
	for _, i := range bestMaternal {
		isMaternal[i] = true
	}
	for i, gi := range members {
		if isMaternal[i] {
			labels[gi] = LabelMaternal
		} else {
			labels[gi] = LabelPaternal
		}
	}
}

// prefixCutSizes returns, for i = 0..m, the total edge weight crossing the
// cut {order[:i]} | {order[i:]}. The direct double sum is plenty fast at
// the vertex counts this partitioner ever sees.
func prefixCutSizes(sub *squareMatrix, order []int) []float64 {
	m := len(order)
	reordered := newSquareMatrix(m)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			reordered.set(i, j, sub.get(order[i], order[j]))
		}
	}
	cut := make([]float64, m+1)
	for i := 0; i <= m; i++ {
		sum := 0.0
		for a := 0; a < i; a++ {
			for b := i; b < m; b++ {
				sum += reordered.get(a, b)
			}
		}
		cut[i] = sum
	}
	return cut
}
