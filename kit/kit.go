// Package kit defines the value types shared by every layer of the
// clustering engine: the dense internal kit id, the Kit record itself, and
// the Source bookkeeping row that tracks how fresh a kit's derived data is.
package kit

// ID is the dense internal identifier a Kit is known by everywhere outside
// the store package, which is the only place the external kitid string and
// the internal ID are bridged.
type ID int64

// Kit is an individual's DNA test result. KitID is the opaque external
// identifier; Name, Email and Sex are optional and filled in on first
// non-null observation only (see store.UpdateKitData).
type Kit struct {
	ID    ID
	KitID string
	Name  *string
	Email *string
	Sex   *string
}

// Source is a Kit that has appeared as kit1 in at least one ingested match or
// triangle row. The three watermarks are batch numbers: Match and Triangle
// record the most recent batch that produced rows for this source, Negative
// records the batch up to which the negative-triangulation cache has been
// rebuilt. Negative <= max(Match, Triangle) always holds; while it is
// strictly less the cache is stale, and the negative package's rebuild
// raises Negative to that maximum.
type Source struct {
	Kit      ID
	Match    *int64
	Triangle *int64
	Negative *int64
}

// Stale reports whether s's negative-triangulation cache needs a rebuild.
// It returns false (not stale, just missing) when there is no match or
// triangle data at all yet -- the caller should treat that as "insufficient
// data", not as work to do.
func (s Source) Stale() bool {
	if s.Match == nil && s.Triangle == nil {
		return false
	}
	hi := int64(0)
	if s.Match != nil && *s.Match > hi {
		hi = *s.Match
	}
	if s.Triangle != nil && *s.Triangle > hi {
		hi = *s.Triangle
	}
	return s.Negative == nil || *s.Negative < hi
}

// HasData reports whether s has ever been a source for both matches and
// triangles, the precondition for build_negative to do anything at all.
func (s Source) HasData() bool {
	return s.Match != nil && s.Triangle != nil
}
