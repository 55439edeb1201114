// Package minheap holds the priority queue and distance labels shared by the
// graph searches: contraction witness searches, access-node searches and the
// point-to-point oracles.
package minheap

import "math"

// Item is a heap entry.
type Item[T any] struct {
	Value T
	Key   float64
}

// Heap is a binary min-heap keyed by float64. Stale entries are the
// caller's concern: searches push duplicates and skip them on pop.
// The zero value is an empty heap.
type Heap[T any] struct {
	items []Item[T]
}

// New returns an empty heap with room for capacity items.
func New[T any](capacity int) Heap[T] {
	return Heap[T]{items: make([]Item[T], 0, capacity)}
}

func (h *Heap[T]) Len() int { return len(h.items) }

// MinKey returns the smallest key, or +Inf if the heap is empty.
func (h *Heap[T]) MinKey() float64 {
	if len(h.items) == 0 {
		return math.Inf(1)
	}
	return h.items[0].Key
}

func (h *Heap[T]) Push(v T, key float64) {
	h.items = append(h.items, Item[T]{Value: v, Key: key})

	// Sift up by moving a hole rather than swapping.
	i := len(h.items) - 1
	it := h.items[i]
	for i > 0 {
		p := (i - 1) / 2
		if it.Key >= h.items[p].Key {
			break
		}
		h.items[i] = h.items[p]
		i = p
	}
	h.items[i] = it
}

// Pop removes and returns the entry with the smallest key. It panics on an
// empty heap.
func (h *Heap[T]) Pop() Item[T] {
	top := h.items[0]
	last := len(h.items) - 1
	it := h.items[last]
	h.items = h.items[:last]
	if last == 0 {
		return top
	}

	i := 0
	for {
		c := 2*i + 1
		if c >= last {
			break
		}
		if c+1 < last && h.items[c+1].Key < h.items[c].Key {
			c++
		}
		if it.Key <= h.items[c].Key {
			break
		}
		h.items[i] = h.items[c]
		i = c
	}
	h.items[i] = it
	return top
}

// Reset empties the heap and keeps its storage.
func (h *Heap[T]) Reset() { h.items = h.items[:0] }

// Labels is a per-node tentative distance array. Unset nodes read +Inf.
// Reset only revisits nodes set since the previous reset, so one Labels can
// serve many small searches over a large graph.
type Labels struct {
	dist    []float64
	touched []uint32
}

// NewLabels returns labels for n nodes, all unset.
func NewLabels(n int) *Labels {
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	return &Labels{dist: dist, touched: make([]uint32, 0, 64)}
}

func (l *Labels) Get(u uint32) float64 { return l.dist[u] }

// Set records d for u. Setting +Inf is not supported.
func (l *Labels) Set(u uint32, d float64) {
	if math.IsInf(l.dist[u], 1) {
		l.touched = append(l.touched, u)
	}
	l.dist[u] = d
}

// Touched returns the nodes set since the last reset, in first-set order.
// The slice is reused by Reset.
func (l *Labels) Touched() []uint32 { return l.touched }

func (l *Labels) Reset() {
	for _, u := range l.touched {
		l.dist[u] = math.Inf(1)
	}
	l.touched = l.touched[:0]
}
