package routing

import (
	"context"
	"fmt"
	"math"
	"sync"

	"transit_router/pkg/graph"
	"transit_router/pkg/tnr"
)

// ErrNodeOutOfRange is returned for node indices outside the graph.
var ErrNodeOutOfRange = tnr.ErrNodeOutOfRange

// ctxCheckInterval is the number of heap pops between context checks.
const ctxCheckInterval = 100

// CHOracle answers point-to-point queries with a bidirectional upward
// search on a contraction hierarchy. It is safe for concurrent use.
type CHOracle struct {
	chg    *graph.CHGraph
	states sync.Pool
}

// NewCHOracle creates an oracle over a contracted graph.
func NewCHOracle(chg *graph.CHGraph) *CHOracle {
	o := &CHOracle{chg: chg}
	o.states.New = func() any { return NewQueryState(chg.NumNodes) }
	return o
}

// Distance returns the shortest distance between s and t.
func (o *CHOracle) Distance(ctx context.Context, s, t uint32) (tnr.Distance, error) {
	if err := checkNodes(o.chg.NumNodes, s, t); err != nil {
		return tnr.Unreachable, err
	}
	if s == t {
		return tnr.Finite(0), nil
	}

	qs := o.states.Get().(*QueryState)
	defer func() {
		qs.Reset()
		o.states.Put(qs)
	}()

	qs.seed(s, t)
	mu, err := runCHDijkstra(ctx, o.chg, qs)
	if err != nil {
		return tnr.Unreachable, err
	}
	return tnr.Finite(mu), nil
}

// runCHDijkstra runs the bidirectional upward search and returns the
// shortest meeting distance (+Inf if the searches never meet). Both
// directions climb the same upward overlay since the graph is undirected.
func runCHDijkstra(ctx context.Context, chg *graph.CHGraph, qs *QueryState) (float64, error) {
	mu := math.Inf(1)

	settle := func(own, other *frontier) {
		u, d, ok := own.next()
		if !ok {
			return
		}
		// Meetings are only final at settle time on the upward overlay.
		mu = min(mu, d+other.dist.Get(u))
		for e := chg.UpFirstOut[u]; e < chg.UpFirstOut[u+1]; e++ {
			own.relax(chg.UpHead[e], d+chg.UpWeight[e])
		}
	}

	for iterations := 1; ; iterations++ {
		fwd := qs.fwd.queue.MinKey() < mu
		bwd := qs.bwd.queue.MinKey() < mu
		if !fwd && !bwd {
			return mu, nil
		}
		if iterations%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return mu, err
			}
		}
		if fwd {
			settle(&qs.fwd, &qs.bwd)
		}
		if bwd && qs.bwd.queue.MinKey() < mu {
			settle(&qs.bwd, &qs.fwd)
		}
	}
}

// DijkstraOracle answers point-to-point queries with a classic
// bidirectional Dijkstra on the uncontracted graph. It needs no
// preprocessing and serves as a baseline and reference.
type DijkstraOracle struct {
	g      *graph.Graph
	states sync.Pool
}

// NewDijkstraOracle creates an oracle over an undirected graph.
func NewDijkstraOracle(g *graph.Graph) *DijkstraOracle {
	o := &DijkstraOracle{g: g}
	o.states.New = func() any { return NewQueryState(g.NumNodes) }
	return o
}

// Distance returns the shortest distance between s and t.
func (o *DijkstraOracle) Distance(ctx context.Context, s, t uint32) (tnr.Distance, error) {
	if err := checkNodes(o.g.NumNodes, s, t); err != nil {
		return tnr.Unreachable, err
	}
	if s == t {
		return tnr.Finite(0), nil
	}

	qs := o.states.Get().(*QueryState)
	defer func() {
		qs.Reset()
		o.states.Put(qs)
	}()

	qs.seed(s, t)
	mu := math.Inf(1)

	settle := func(own, other *frontier) {
		u, d, ok := own.next()
		if !ok {
			return
		}
		start, end := o.g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := o.g.Head[e]
			nd := d + o.g.Weight[e]
			own.relax(v, nd)
			mu = min(mu, nd+other.dist.Get(v))
		}
	}

	// Either queue running dry means its side's component is exhausted,
	// and every meeting has been recorded during relaxation.
	for iterations := 1; qs.fwd.queue.Len() > 0 && qs.bwd.queue.Len() > 0; iterations++ {
		if qs.fwd.queue.MinKey()+qs.bwd.queue.MinKey() >= mu {
			break
		}
		if iterations%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return tnr.Unreachable, err
			}
		}
		if qs.fwd.queue.Len() <= qs.bwd.queue.Len() {
			settle(&qs.fwd, &qs.bwd)
		} else {
			settle(&qs.bwd, &qs.fwd)
		}
	}
	return tnr.Finite(mu), nil
}

func checkNodes(n, s, t uint32) error {
	if s >= n {
		return fmt.Errorf("node %d: %w", s, ErrNodeOutOfRange)
	}
	if t >= n {
		return fmt.Errorf("node %d: %w", t, ErrNodeOutOfRange)
	}
	return nil
}
