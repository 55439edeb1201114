package tnr

import (
	"slices"

	"transit_router/internal/minheap"
)

// AccessNode is a transit node reachable from a source without passing
// through another transit node first.
type AccessNode struct {
	Transit uint32
	Dist    Distance
}

// FindAccessNodes runs the bounded search from s: a Dijkstra over the whole
// graph that does not expand transit nodes other than s. It returns the
// access nodes in discovery order (non-decreasing distance) and the set of
// finalized nodes.
func FindAccessNodes(g Graph, set *TransitSet, s uint32) ([]AccessNode, SearchSpace) {
	return newAccessSearch(g.NodeCount()).run(g, set, s)
}

// accessSearch holds reusable state for bounded searches from many sources.
// Only the nodes touched by one run are reset before the next, so a worker
// can run one search per source without reallocating per-node arrays.
// An accessSearch must not be shared between goroutines.
type accessSearch struct {
	dist    *minheap.Labels
	settled []bool
	queue   minheap.Heap[uint32]
}

func newAccessSearch(numNodes int) *accessSearch {
	return &accessSearch{
		dist:    minheap.NewLabels(numNodes),
		settled: make([]bool, numNodes),
		queue:   minheap.New[uint32](64),
	}
}

func (as *accessSearch) reset() {
	for _, u := range as.dist.Touched() {
		as.settled[u] = false
	}
	as.dist.Reset()
	as.queue.Reset()
}

func (as *accessSearch) run(g Graph, set *TransitSet, s uint32) ([]AccessNode, SearchSpace) {
	as.reset()

	var access []AccessNode
	as.dist.Set(s, 0)
	as.queue.Push(s, 0)

	for as.queue.Len() > 0 {
		cur := as.queue.Pop()
		u, d := cur.Value, cur.Key

		if as.settled[u] {
			continue // stale entry
		}
		as.settled[u] = true

		if u != s && set.Contains(u) {
			// Nodes settle once, in non-decreasing order, so this is
			// already the minimum distance to u.
			access = append(access, AccessNode{Transit: u, Dist: Finite(d)})
			continue
		}

		g.ForEachNeighbor(u, func(v uint32, w float64) {
			if as.settled[v] {
				return
			}
			if nd := d + w; nd < as.dist.Get(v) {
				as.dist.Set(v, nd)
				as.queue.Push(v, nd)
			}
		})
	}

	// Every touched node was pushed, so every touched node got settled.
	space := SearchSpace(slices.Clone(as.dist.Touched()))
	slices.Sort(space)
	return access, space
}
