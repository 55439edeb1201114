package ch

import "transit_router/internal/minheap"

// Witness searches give up after settling witnessSettleLimit nodes or going
// witnessHopLimit arcs deep. Giving up early only adds shortcuts.
const (
	witnessSettleLimit = 500
	witnessHopLimit    = 5
)

type hop struct {
	node  uint32
	depth int
}

// witnessSearch looks for paths between the neighbors of a node being
// contracted that avoid the node itself. If one is no longer than the path
// through the node, the shortcut is unnecessary.
type witnessSearch struct {
	dist  *minheap.Labels
	queue minheap.Heap[hop]
}

func newWitnessSearch(numNodes uint32) *witnessSearch {
	return &witnessSearch{
		dist:  minheap.NewLabels(int(numNodes)),
		queue: minheap.New[hop](256),
	}
}

// run searches from source over uncontracted nodes other than via, ignoring
// paths longer than limit. Results stay readable through reaches until the
// next run.
func (w *witnessSearch) run(adj [][]adjEntry, contracted []bool, source, via uint32, limit float64) {
	w.dist.Reset()
	w.queue.Reset()

	w.dist.Set(source, 0)
	w.queue.Push(hop{node: source}, 0)

	settled := 0
	for w.queue.Len() > 0 {
		it := w.queue.Pop()
		u, d := it.Value, it.Key
		if d > w.dist.Get(u.node) {
			continue
		}
		if settled++; settled >= witnessSettleLimit {
			return
		}
		if u.depth >= witnessHopLimit {
			continue
		}

		for _, e := range adj[u.node] {
			if e.to == via || contracted[e.to] {
				continue
			}
			nd := d + e.weight
			if nd > limit || nd >= w.dist.Get(e.to) {
				continue
			}
			w.dist.Set(e.to, nd)
			w.queue.Push(hop{node: e.to, depth: u.depth + 1}, nd)
		}
	}
}

// reaches reports whether the last run found a path to v of length at most d.
func (w *witnessSearch) reaches(v uint32, d float64) bool {
	return w.dist.Get(v) <= d
}
