package kit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func i64(v int64) *int64 { return &v }

func TestSourceStale(t *testing.T) {
	// Missing: no match, no triangle data at all.
	assert.False(t, Source{}.Stale())
	assert.False(t, Source{}.HasData())

	// Up to date.
	s := Source{Match: i64(3), Triangle: i64(2), Negative: i64(3)}
	assert.False(t, s.Stale())
	assert.True(t, s.HasData())

	// Stale: triangle batch moved past the cached negative watermark.
	s = Source{Match: i64(1), Triangle: i64(2), Negative: i64(1)}
	assert.True(t, s.Stale())

	// Never built at all, but has both kinds of data.
	s = Source{Match: i64(1), Triangle: i64(1)}
	assert.True(t, s.Stale())
}

func TestSetDedup(t *testing.T) {
	s := NewSet()
	assert.True(t, s.Add("A123456"))
	assert.True(t, s.Add("B789"))
	assert.False(t, s.Add("A123456"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"A123456", "B789"}, s.Slice())
	assert.Equal(t, s.Slice(), s.Slice(), "repeated calls see the same ordering")
}
