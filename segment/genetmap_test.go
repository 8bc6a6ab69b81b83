package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildTestMap() *GeneticMap {
	m := NewGeneticMap()
	m.Add("1", 0, 0)
	m.Add("1", 1000000, 1.0)
	m.Add("1", 2000000, 2.5)
	m.Add(ChromosomeX, 0, 0)
	m.Add(ChromosomeX, 500000, 4.0)
	return m
}

func TestInterpolateWithinBracket(t *testing.T) {
	m := buildTestMap()
	cm, ok := m.Interpolate("1", 500000)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, cm, 1e-9)
}

func TestInterpolateExactAnchor(t *testing.T) {
	m := buildTestMap()
	cm, ok := m.Interpolate("1", 1000000)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, cm, 1e-9)
}

func TestInterpolateOutsideRangeUsesNearest(t *testing.T) {
	m := buildTestMap()
	cm, ok := m.Interpolate("1", -500000)
	assert.True(t, ok)
	assert.InDelta(t, 0, cm, 1e-9)

	cm, ok = m.Interpolate("1", 5000000)
	assert.True(t, ok)
	assert.InDelta(t, 2.5, cm, 1e-9)
}

func TestInterpolateUnknownChromosome(t *testing.T) {
	m := buildTestMap()
	_, ok := m.Interpolate("99", 100)
	assert.False(t, ok)
}

func TestLength(t *testing.T) {
	m := buildTestMap()
	length, ok := m.Length("1", 0, 1000000)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, length, 1e-9)
}

func TestLengthAllowsNegative(t *testing.T) {
	m := buildTestMap()
	// end before start: negative lengths propagate unclamped.
	length, ok := m.Length("1", 1000000, 0)
	assert.True(t, ok)
	assert.InDelta(t, -1.0, length, 1e-9)
}
