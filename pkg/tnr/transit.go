package tnr

import (
	"fmt"
	"sort"
)

// TransitSet is an immutable set of transit nodes. Each member has a slot
// in [0, Len()) that indexes the distance table.
type TransitSet struct {
	nodes []uint32
	slot  []int32 // per graph node; -1 if not transit
}

// NewTransitSet builds a set over a graph with numNodes nodes.
// Duplicate or out-of-range members are rejected.
func NewTransitSet(numNodes int, nodes []uint32) (*TransitSet, error) {
	slot := make([]int32, numNodes)
	for i := range slot {
		slot[i] = -1
	}
	members := make([]uint32, len(nodes))
	for i, u := range nodes {
		if int(u) >= numNodes {
			return nil, fmt.Errorf("transit node %d: %w", u, ErrNodeOutOfRange)
		}
		if slot[u] >= 0 {
			return nil, fmt.Errorf("transit node %d listed twice", u)
		}
		slot[u] = int32(i)
		members[i] = u
	}
	return &TransitSet{nodes: members, slot: slot}, nil
}

// Len returns the number of transit nodes.
func (ts *TransitSet) Len() int { return len(ts.nodes) }

// Nodes returns the transit nodes in slot order. The slice must not be modified.
func (ts *TransitSet) Nodes() []uint32 { return ts.nodes }

// Contains reports whether u is a transit node.
func (ts *TransitSet) Contains(u uint32) bool {
	return int(u) < len(ts.slot) && ts.slot[u] >= 0
}

// Slot returns the table slot of u.
func (ts *TransitSet) Slot(u uint32) (int, bool) {
	if !ts.Contains(u) {
		return 0, false
	}
	return int(ts.slot[u]), true
}

// SelectTransitNodes returns the k nodes with the highest rank, in
// ascending rank order. Nodes without a rank sort after every ranked node,
// so they are selected first; ties are broken by node index. If k is at
// least the node count, every node is selected.
func SelectTransitNodes(g Graph, k int) []uint32 {
	n := g.NodeCount()
	if k <= 0 || n == 0 {
		return nil
	}
	k = min(k, n)

	type ranked struct {
		node uint32
		rank uint32
		ok   bool
	}
	order := make([]ranked, n)
	for i := range n {
		r, ok := g.NodeRank(uint32(i))
		order[i] = ranked{node: uint32(i), rank: r, ok: ok}
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.ok != b.ok {
			return a.ok // unranked = +infinity
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.node < b.node
	})

	selected := make([]uint32, k)
	for i, r := range order[n-k:] {
		selected[i] = r.node
	}
	return selected
}
