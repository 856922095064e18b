package deps

import "maps"

// Set deduplicates dependencies by identity. The zero value is not usable;
// create one with [NewSet].
type Set struct {
	m map[Identity]Dependency
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{m: make(map[Identity]Dependency)}
}

// Add inserts d unless an entry with the same identity is present, in which
// case the first descriptor is kept. It reports whether d was inserted.
func (s *Set) Add(d Dependency) bool {
	if _, ok := s.m[d.Identity]; ok {
		return false
	}
	s.m[d.Identity] = d
	return true
}

// Has reports whether id is in the set.
func (s *Set) Has(id Identity) bool {
	_, ok := s.m[id]
	return ok
}

// Len returns the number of distinct identities.
func (s *Set) Len() int { return len(s.m) }

// Slice returns the entries in unspecified order.
func (s *Set) Slice() []Dependency {
	out := make([]Dependency, 0, len(s.m))
	for d := range maps.Values(s.m) {
		out = append(out, d)
	}
	return out
}
