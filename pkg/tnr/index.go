package tnr

import "fmt"

// Index is the immutable result of preprocessing. The zero value is an
// unprepared index on which every lookup fails with ErrMissingAccessData.
type Index struct {
	numNodes int
	transit  *TransitSet
	table    *Table
	access   [][]AccessNode
	spaces   []SearchSpace
}

// NumNodes returns the number of nodes covered by the index.
func (idx *Index) NumNodes() int { return idx.numNodes }

// Transit returns the transit set, or nil for an unprepared index.
func (idx *Index) Transit() *TransitSet { return idx.transit }

// Table returns the transit distance table, or nil for an unprepared index.
func (idx *Index) Table() *Table { return idx.table }

func (idx *Index) check(u uint32) error {
	if int(u) >= idx.numNodes {
		return fmt.Errorf("node %d: %w", u, ErrNodeOutOfRange)
	}
	if idx.access == nil || idx.spaces == nil || idx.spaces[u] == nil {
		return fmt.Errorf("node %d: %w", u, ErrMissingAccessData)
	}
	return nil
}

// AccessNodes returns the access nodes of u in discovery order.
func (idx *Index) AccessNodes(u uint32) ([]AccessNode, error) {
	if err := idx.check(u); err != nil {
		return nil, err
	}
	return idx.access[u], nil
}

// SearchSpace returns the local search space of u.
func (idx *Index) SearchSpace(u uint32) (SearchSpace, error) {
	if err := idx.check(u); err != nil {
		return nil, err
	}
	return idx.spaces[u], nil
}

// IsLocal reports whether the search spaces of s and t intersect.
func (idx *Index) IsLocal(s, t uint32) (bool, error) {
	a, err := idx.SearchSpace(s)
	if err != nil {
		return false, err
	}
	b, err := idx.SearchSpace(t)
	if err != nil {
		return false, err
	}
	return IsLocal(a, b), nil
}

// IndexStats summarizes an index.
type IndexStats struct {
	Nodes              int     `json:"nodes"`
	TransitNodes       int     `json:"transit_nodes"`
	UnreachablePairs   int     `json:"unreachable_transit_pairs"`
	AvgAccessNodes     float64 `json:"avg_access_nodes"`
	MaxAccessNodes     int     `json:"max_access_nodes"`
	AvgSearchSpace     float64 `json:"avg_search_space"`
	MaxSearchSpace     int     `json:"max_search_space"`
	NodesWithoutAccess int     `json:"nodes_without_access"`
}

// Stats computes summary statistics.
func (idx *Index) Stats() IndexStats {
	st := IndexStats{Nodes: idx.numNodes}
	if idx.transit == nil {
		return st
	}
	st.TransitNodes = idx.transit.Len()
	for _, d := range idx.table.dist {
		if !d.Reachable() {
			st.UnreachablePairs++
		}
	}

	var sumAccess, sumSpace int
	for u := range idx.numNodes {
		a, s := len(idx.access[u]), len(idx.spaces[u])
		sumAccess += a
		sumSpace += s
		st.MaxAccessNodes = max(st.MaxAccessNodes, a)
		st.MaxSearchSpace = max(st.MaxSearchSpace, s)
		if a == 0 {
			st.NodesWithoutAccess++
		}
	}
	if idx.numNodes > 0 {
		st.AvgAccessNodes = float64(sumAccess) / float64(idx.numNodes)
		st.AvgSearchSpace = float64(sumSpace) / float64(idx.numNodes)
	}
	return st
}
