package tnr

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
)

// testGraph is an adjacency-list graph with optional ranks (-1 = none).
type testGraph struct {
	adj   [][]testArc
	ranks []int64
}

type testArc struct {
	to uint32
	w  float64
}

func newTestGraph(n int) *testGraph {
	ranks := make([]int64, n)
	for i := range ranks {
		ranks[i] = -1
	}
	return &testGraph{adj: make([][]testArc, n), ranks: ranks}
}

func (g *testGraph) edge(u, v uint32, w float64) *testGraph {
	g.adj[u] = append(g.adj[u], testArc{v, w})
	g.adj[v] = append(g.adj[v], testArc{u, w})
	return g
}

func (g *testGraph) rank(u uint32, r int64) *testGraph {
	g.ranks[u] = r
	return g
}

func (g *testGraph) NodeCount() int { return len(g.adj) }

func (g *testGraph) ForEachNeighbor(u uint32, fn func(v uint32, w float64)) {
	for _, a := range g.adj[u] {
		fn(a.to, a.w)
	}
}

func (g *testGraph) NodeRank(u uint32) (uint32, bool) {
	if g.ranks[u] < 0 {
		return 0, false
	}
	return uint32(g.ranks[u]), true
}

// dijkstra returns exact distances from s to every node.
func dijkstra(g Graph, s uint32) []float64 {
	n := g.NodeCount()
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[s] = 0
	done := make([]bool, n)
	for {
		u, best := -1, math.Inf(1)
		for i, d := range dist {
			if !done[i] && d < best {
				u, best = i, d
			}
		}
		if u < 0 {
			return dist
		}
		done[u] = true
		g.ForEachNeighbor(uint32(u), func(v uint32, w float64) {
			if nd := best + w; nd < dist[v] {
				dist[v] = nd
			}
		})
	}
}

// countingOracle answers with plain Dijkstra and counts calls.
type countingOracle struct {
	g     Graph
	calls atomic.Int64
}

func (o *countingOracle) Distance(ctx context.Context, u, v uint32) (Distance, error) {
	o.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return Unreachable, err
	}
	return Finite(dijkstra(o.g, u)[v]), nil
}

// chain builds A-B-C with A-B=1 and B-C=2, C ranked highest.
func chain() *testGraph {
	return newTestGraph(3).
		edge(0, 1, 1).
		edge(1, 2, 2).
		rank(0, 0).rank(1, 1).rank(2, 2)
}

// gridGraph builds a w×h grid with random integer weights and a random
// rank permutation.
func gridGraph(w, h int, seed int64) *testGraph {
	rng := rand.New(rand.NewSource(seed))
	g := newTestGraph(w * h)
	id := func(x, y int) uint32 { return uint32(y*w + x) }
	for y := range h {
		for x := range w {
			if x+1 < w {
				g.edge(id(x, y), id(x+1, y), float64(1+rng.Intn(9)))
			}
			if y+1 < h {
				g.edge(id(x, y), id(x, y+1), float64(1+rng.Intn(9)))
			}
		}
	}
	for i, r := range rng.Perm(w * h) {
		g.rank(uint32(i), int64(r))
	}
	return g
}
