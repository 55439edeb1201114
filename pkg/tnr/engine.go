package tnr

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

// Method tells which step of the query algorithm produced an answer.
type Method uint8

const (
	// Identity: source equals target.
	Identity Method = iota
	// Local: the search spaces intersect; answered by the oracle.
	Local
	// Transit: composed from access nodes and the transit table.
	Transit
	// Fallback: no finite transit composition; answered by the oracle.
	Fallback
)

func (m Method) String() string {
	switch m {
	case Identity:
		return "identity"
	case Local:
		return "local"
	case Transit:
		return "transit"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Result is the answer to a distance query.
type Result struct {
	Distance Distance
	Method   Method
}

// Engine answers distance queries from a prepared Index. It is safe for
// concurrent use.
type Engine struct {
	idx     *Index
	oracle  Oracle
	timeout time.Duration
	group   singleflight.Group
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithQueryTimeout bounds every oracle call made by a query.
func WithQueryTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.timeout = d }
}

// NewEngine creates a query engine over a prepared index.
func NewEngine(idx *Index, oracle Oracle, opts ...EngineOption) *Engine {
	e := &Engine{idx: idx, oracle: oracle}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index returns the index the engine queries.
func (e *Engine) Index() *Index { return e.idx }

// Distance returns the shortest distance between s and t.
func (e *Engine) Distance(ctx context.Context, s, t uint32) (Distance, error) {
	res, err := e.Query(ctx, s, t)
	return res.Distance, err
}

// Query returns the shortest distance between s and t and how it was found.
func (e *Engine) Query(ctx context.Context, s, t uint32) (Result, error) {
	if err := e.idx.check(s); err != nil {
		return Result{}, err
	}
	if err := e.idx.check(t); err != nil {
		return Result{}, err
	}

	if s == t {
		return Result{Distance: Finite(0), Method: Identity}, nil
	}

	if IsLocal(e.idx.spaces[s], e.idx.spaces[t]) {
		d, err := e.direct(ctx, s, t)
		return Result{Distance: d, Method: Local}, err
	}

	if best := e.viaTransit(s, t); best.Reachable() {
		return Result{Distance: best, Method: Transit}, nil
	}

	d, err := e.direct(ctx, s, t)
	return Result{Distance: d, Method: Fallback}, err
}

// viaTransit returns the best composition over all access node pairs.
func (e *Engine) viaTransit(s, t uint32) Distance {
	best := Unreachable
	for _, as := range e.idx.access[s] {
		i, _ := e.idx.transit.Slot(as.Transit)
		for _, at := range e.idx.access[t] {
			j, _ := e.idx.transit.Slot(at.Transit)
			if cand := as.Dist.Add(e.idx.table.at(i, j)).Add(at.Dist); cand.Less(best) {
				best = cand
			}
		}
	}
	return best
}

// direct asks the oracle. Concurrent requests for the same pair share one
// call, which runs detached from every caller's cancellation and is bounded
// only by the engine timeout. Each caller still returns when its own ctx is
// done.
func (e *Engine) direct(ctx context.Context, s, t uint32) (Distance, error) {
	if err := ctx.Err(); err != nil {
		return Unreachable, err
	}
	key := strconv.FormatUint(uint64(s), 10) + ":" + strconv.FormatUint(uint64(t), 10)
	shared := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (any, error) {
		return callOracle(shared, e.oracle, e.timeout, s, t)
	})

	select {
	case <-ctx.Done():
		return Unreachable, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Unreachable, r.Err
		}
		return r.Val.(Distance), nil
	}
}
