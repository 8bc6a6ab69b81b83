package segment

import (
	"github.com/biogo/store/llrb"
)

// Anchor is one (position, cM) point of a genetic map on a single
// chromosome.
type Anchor struct {
	Position int64
	CM       float64
}

// anchorNode is the llrb.Comparable stored in a chromosome's tree, ordered by
// position alone -- the same pattern encoding/bampair/shard_info.go uses to
// find the shard whose start position brackets a read's coordinate.
type anchorNode struct {
	Anchor
}

func (n anchorNode) Compare(other llrb.Comparable) int {
	o := other.(anchorNode)
	switch {
	case n.Position < o.Position:
		return -1
	case n.Position > o.Position:
		return 1
	default:
		return 0
	}
}

// GeneticMap interpolates base-pair positions to centimorgans from a sparse
// set of anchor points, one sorted tree per chromosome.
type GeneticMap struct {
	chroms map[string]*llrb.Tree
}

// NewGeneticMap returns an empty genetic map.
func NewGeneticMap() *GeneticMap {
	return &GeneticMap{chroms: make(map[string]*llrb.Tree)}
}

// Add inserts one genetic-map anchor point for chromosome.
func (m *GeneticMap) Add(chromosome string, position int64, cm float64) {
	tree, ok := m.chroms[chromosome]
	if !ok {
		tree = &llrb.Tree{}
		m.chroms[chromosome] = tree
	}
	tree.Insert(anchorNode{Anchor{Position: position, CM: cm}})
}

// bracket returns the two anchors P1 <= pos <= P2 on chromosome that bracket
// pos. When pos falls outside every anchor on that chromosome, the single
// nearest anchor is returned for both P1 and P2. ok is false only when the
// chromosome has no anchors at all.
func (m *GeneticMap) bracket(chromosome string, pos int64) (p1, p2 Anchor, ok bool) {
	tree, found := m.chroms[chromosome]
	if !found {
		return Anchor{}, Anchor{}, false
	}
	probe := anchorNode{Anchor{Position: pos}}

	var lo, hi *Anchor
	if v := tree.Floor(probe); v != nil {
		a := v.(anchorNode).Anchor
		lo = &a
	}
	if v := tree.Ceil(probe); v != nil {
		a := v.(anchorNode).Anchor
		hi = &a
	}
	switch {
	case lo == nil && hi == nil:
		return Anchor{}, Anchor{}, false
	case lo == nil:
		return *hi, *hi, true
	case hi == nil:
		return *lo, *lo, true
	default:
		return *lo, *hi, true
	}
}

// Interpolate returns the cM value at (chromosome, pos) by linear
// interpolation between the bracketing anchors, treating a zero-width
// bracket (P1 == P2, including the 0/0 case) as contributing zero slope.
// ok is false when chromosome has no anchors loaded at all.
func (m *GeneticMap) Interpolate(chromosome string, pos int64) (cm float64, ok bool) {
	p1, p2, ok := m.bracket(chromosome, pos)
	if !ok {
		return 0, false
	}
	if p2.Position == p1.Position {
		return p1.CM, true
	}
	frac := float64(pos-p1.Position) / float64(p2.Position-p1.Position)
	return p1.CM + frac*(p2.CM-p1.CM), true
}

// Length returns the cM length of [start, end) on chromosome, the
// end-minus-start of two independent interpolations. It is not clamped at
// zero; small negative lengths propagate to the caller as-is.
func (m *GeneticMap) Length(chromosome string, start, end int64) (float64, bool) {
	cmStart, ok := m.Interpolate(chromosome, start)
	if !ok {
		return 0, false
	}
	cmEnd, ok := m.Interpolate(chromosome, end)
	if !ok {
		return 0, false
	}
	return cmEnd - cmStart, true
}
