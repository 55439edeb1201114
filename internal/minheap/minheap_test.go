package minheap

import (
	"math"
	"math/rand"
	"slices"
	"testing"
)

func TestHeapOrder(t *testing.T) {
	var h Heap[uint32]

	if !math.IsInf(h.MinKey(), 1) {
		t.Errorf("MinKey on empty heap = %v, want +Inf", h.MinKey())
	}

	h.Push(1, 30)
	h.Push(2, 10)
	h.Push(3, 20)

	if h.MinKey() != 10 {
		t.Errorf("MinKey = %v, want 10", h.MinKey())
	}

	for _, want := range []Item[uint32]{{2, 10}, {3, 20}, {1, 30}} {
		if got := h.Pop(); got != want {
			t.Errorf("Pop = %+v, want %+v", got, want)
		}
	}
	if h.Len() != 0 {
		t.Errorf("Len = %d, want 0", h.Len())
	}
}

func TestHeapRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	h := New[int](8)

	var keys []float64
	for i := range 500 {
		k := float64(rng.Intn(100))
		keys = append(keys, k)
		h.Push(i, k)
	}
	slices.Sort(keys)

	for i, want := range keys {
		if got := h.Pop().Key; got != want {
			t.Fatalf("pop %d: key %v, want %v", i, got, want)
		}
	}

	h.Push(7, 1)
	h.Reset()
	if h.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", h.Len())
	}
}

func TestLabels(t *testing.T) {
	l := NewLabels(5)

	if !math.IsInf(l.Get(3), 1) {
		t.Errorf("unset label = %v, want +Inf", l.Get(3))
	}

	l.Set(3, 7)
	l.Set(1, 2)
	l.Set(3, 4)

	if l.Get(3) != 4 || l.Get(1) != 2 {
		t.Errorf("labels = %v, %v; want 4, 2", l.Get(3), l.Get(1))
	}
	if got := l.Touched(); !slices.Equal(got, []uint32{3, 1}) {
		t.Errorf("Touched = %v, want [3 1]", got)
	}

	l.Reset()
	for u := range uint32(5) {
		if !math.IsInf(l.Get(u), 1) {
			t.Errorf("label %d = %v after Reset, want +Inf", u, l.Get(u))
		}
	}
	if len(l.Touched()) != 0 {
		t.Errorf("Touched after Reset = %v", l.Touched())
	}
}
