package tnr

import "slices"

// SearchSpace is the sorted set of nodes finalized by a bounded search.
type SearchSpace []uint32

// Contains reports whether u is in the search space.
func (s SearchSpace) Contains(u uint32) bool {
	_, found := slices.BinarySearch(s, u)
	return found
}

// Intersects reports whether s and o share at least one node.
func (s SearchSpace) Intersects(o SearchSpace) bool {
	if len(s) > len(o) {
		s, o = o, s
	}
	if len(s) == 0 {
		return false
	}
	// Binary-search the larger set when the sizes are lopsided; merge otherwise.
	if len(s)*8 < len(o) {
		for _, u := range s {
			if o.Contains(u) {
				return true
			}
		}
		return false
	}
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		switch {
		case s[i] == o[j]:
			return true
		case s[i] < o[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// IsLocal reports whether a query between the owners of two search spaces
// must be answered directly instead of through transit nodes.
func IsLocal(a, b SearchSpace) bool {
	return a.Intersects(b)
}
