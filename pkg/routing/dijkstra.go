package routing

import "transit_router/internal/minheap"

// frontier is one direction of a bidirectional search.
type frontier struct {
	dist  *minheap.Labels
	queue minheap.Heap[uint32]
}

// relax lowers v's label to d and queues it. It reports whether d improved.
func (f *frontier) relax(v uint32, d float64) bool {
	if d >= f.dist.Get(v) {
		return false
	}
	f.dist.Set(v, d)
	f.queue.Push(v, d)
	return true
}

// next pops the closest unsettled entry. ok is false for a stale entry.
func (f *frontier) next() (u uint32, d float64, ok bool) {
	it := f.queue.Pop()
	return it.Value, it.Key, it.Key <= f.dist.Get(it.Value)
}

func (f *frontier) reset() {
	f.dist.Reset()
	f.queue.Reset()
}

// QueryState is the scratch space of one bidirectional search. Oracles pool
// them; a state must not be used by two searches at once.
type QueryState struct {
	fwd, bwd frontier
}

// NewQueryState creates a QueryState for a graph with n nodes.
func NewQueryState(n uint32) *QueryState {
	return &QueryState{
		fwd: frontier{dist: minheap.NewLabels(int(n)), queue: minheap.New[uint32](256)},
		bwd: frontier{dist: minheap.NewLabels(int(n)), queue: minheap.New[uint32](256)},
	}
}

// Reset clears the nodes touched by the last search.
func (qs *QueryState) Reset() {
	qs.fwd.reset()
	qs.bwd.reset()
}

func (qs *QueryState) seed(s, t uint32) {
	qs.fwd.relax(s, 0)
	qs.bwd.relax(t, 0)
}
