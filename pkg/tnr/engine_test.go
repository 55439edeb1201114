package tnr

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func prepare(t testing.TB, g Graph, k int) (*Engine, *countingOracle) {
	t.Helper()
	o := &countingOracle{g: g}
	idx, err := Preprocess(context.Background(), g, o, Options{K: k, Workers: 4})
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	o.calls.Store(0)
	return NewEngine(idx, o), o
}

func TestQueryIdentity(t *testing.T) {
	e, o := prepare(t, chain(), 1)
	res, err := e.Query(context.Background(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Distance != Finite(0) || res.Method != Identity {
		t.Errorf("got %v via %v, want 0 via identity", res.Distance, res.Method)
	}
	if n := o.calls.Load(); n != 0 {
		t.Errorf("identity query made %d oracle calls", n)
	}
}

func TestQueryChain(t *testing.T) {
	// A-B=1, B-C=2, k=1: C is the only transit node.
	e, _ := prepare(t, chain(), 1)
	if got := e.Index().Transit().Nodes(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("transit nodes = %v, want [2]", got)
	}

	d, err := e.Distance(context.Background(), 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if d != Finite(3) {
		t.Errorf("query(A, C) = %v, want 3", d)
	}
}

func TestQueryDisconnected(t *testing.T) {
	g := newTestGraph(2).rank(0, 0).rank(1, 1)
	e, _ := prepare(t, g, 1)

	res, err := e.Query(context.Background(), 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Distance.Reachable() {
		t.Errorf("query(X, Y) = %v, want unreachable", res.Distance)
	}
}

func TestQueryUsesTransitComposition(t *testing.T) {
	// 0 - 1 - 2 - 3 - 4 with transit nodes 1 and 3: spaces of 0 and 4 are
	// disjoint, so the answer is composed without an oracle call.
	g := newTestGraph(5).edge(0, 1, 1).edge(1, 2, 2).edge(2, 3, 3).edge(3, 4, 4).
		rank(0, 0).rank(2, 1).rank(4, 2).rank(1, 3).rank(3, 4)
	e, o := prepare(t, g, 2)

	res, err := e.Query(context.Background(), 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if res.Distance != Finite(10) || res.Method != Transit {
		t.Errorf("got %v via %v, want 10 via transit", res.Distance, res.Method)
	}
	if n := o.calls.Load(); n != 0 {
		t.Errorf("transit query made %d oracle calls", n)
	}

	res, _ = e.Query(context.Background(), 0, 2)
	if res.Method != Local || res.Distance != Finite(3) {
		t.Errorf("query(0, 2) = %v via %v, want 3 via local", res.Distance, res.Method)
	}
}

func TestQueryFallsBackToOracle(t *testing.T) {
	// No access nodes and disjoint spaces: only the oracle can answer.
	set, _ := NewTransitSet(2, nil)
	idx := &Index{
		numNodes: 2,
		transit:  set,
		table:    &Table{set: set},
		access:   make([][]AccessNode, 2),
		spaces:   []SearchSpace{{0}, {1}},
	}
	oracle := OracleFunc(func(context.Context, uint32, uint32) (Distance, error) { return Finite(42), nil })

	res, err := NewEngine(idx, oracle).Query(context.Background(), 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Distance != Finite(42) || res.Method != Fallback {
		t.Errorf("got %v via %v, want 42 via fallback", res.Distance, res.Method)
	}
}

func TestQueryMatchesDijkstra(t *testing.T) {
	g := gridGraph(7, 6, 11)
	n := g.NodeCount()
	exact := make([][]float64, n)
	for s := range n {
		exact[s] = dijkstra(g, uint32(s))
	}

	for _, k := range []int{1, 3, 8, 20, n, n + 5} {
		e, _ := prepare(t, g, k)
		for s := range n {
			for d := range n {
				got, err := e.Distance(context.Background(), uint32(s), uint32(d))
				if err != nil {
					t.Fatalf("k=%d: %v", k, err)
				}
				if want := Finite(exact[s][d]); got != want {
					t.Errorf("k=%d s=%d t=%d: got %v, want %v", k, s, d, got, want)
				}
			}
		}
	}
}

func TestLocalityConsistency(t *testing.T) {
	g := gridGraph(6, 6, 5)
	e, _ := prepare(t, g, 6)
	idx := e.Index()

	for s := range g.NodeCount() {
		for d := range g.NodeCount() {
			ab, err := idx.IsLocal(uint32(s), uint32(d))
			if err != nil {
				t.Fatal(err)
			}
			ba, _ := idx.IsLocal(uint32(d), uint32(s))
			if ab != ba {
				t.Errorf("IsLocal(%d, %d) = %v but IsLocal(%d, %d) = %v", s, d, ab, d, s, ba)
			}
			if s == d && !ab {
				t.Errorf("node %d is not local to itself", s)
			}
		}
	}
}

func TestQueryMissingAccessData(t *testing.T) {
	e := NewEngine(&Index{}, &countingOracle{g: chain()})
	if _, err := e.Query(context.Background(), 0, 1); !errors.Is(err, ErrMissingAccessData) {
		t.Errorf("unprepared index: err = %v, want ErrMissingAccessData", err)
	}

	prepared, _ := prepare(t, chain(), 1)
	_, err := prepared.Query(context.Background(), 0, 7)
	if !errors.Is(err, ErrNodeOutOfRange) || !errors.Is(err, ErrMissingAccessData) {
		t.Errorf("out of range: err = %v", err)
	}
}

// localIndex is a two-node index where every query is local.
func localIndex() *Index {
	set, _ := NewTransitSet(2, nil)
	return &Index{
		numNodes: 2,
		transit:  set,
		table:    &Table{set: set},
		access:   make([][]AccessNode, 2),
		spaces:   []SearchSpace{{0, 1}, {0, 1}},
	}
}

func TestQueryOracleTimeout(t *testing.T) {
	idx := localIndex()
	slow := OracleFunc(func(ctx context.Context, _, _ uint32) (Distance, error) {
		<-ctx.Done()
		return Unreachable, ctx.Err()
	})

	e := NewEngine(idx, slow, WithQueryTimeout(10*time.Millisecond))
	res, err := e.Query(context.Background(), 0, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
	if res.Method != Local {
		t.Errorf("method = %v, want local", res.Method)
	}
}

func TestSharedOracleCallSurvivesCallerCancel(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	blocking := OracleFunc(func(ctx context.Context, _, _ uint32) (Distance, error) {
		started <- struct{}{}
		select {
		case <-release:
			return Finite(7), nil
		case <-ctx.Done():
			return Unreachable, ctx.Err()
		}
	})
	e := NewEngine(localIndex(), blocking)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := e.Query(first, 0, 1)
		firstErr <- err
	}()
	<-started

	type answer struct {
		res Result
		err error
	}
	second := make(chan answer, 1)
	go func() {
		res, err := e.Query(context.Background(), 0, 1)
		second <- answer{res, err}
	}()
	time.Sleep(20 * time.Millisecond) // let the second caller join

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("canceled caller: err = %v, want Canceled", err)
	}

	close(release)
	got := <-second
	if got.err != nil {
		t.Fatalf("other caller: %v", got.err)
	}
	if got.res.Distance != Finite(7) || got.res.Method != Local {
		t.Errorf("other caller: got %v via %v, want 7 via local", got.res.Distance, got.res.Method)
	}
}

func TestQueryCanceledBeforeOracle(t *testing.T) {
	var calls atomic.Int32
	o := OracleFunc(func(context.Context, uint32, uint32) (Distance, error) {
		calls.Add(1)
		return Finite(1), nil
	})
	e := NewEngine(localIndex(), o)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Query(ctx, 0, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want Canceled", err)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("oracle called %d times for a canceled query", n)
	}
}

func TestMethodString(t *testing.T) {
	for m, want := range map[Method]string{Identity: "identity", Local: "local", Transit: "transit", Fallback: "fallback", Method(9): "unknown"} {
		if got := m.String(); got != want {
			t.Errorf("Method(%d) = %q, want %q", m, got, want)
		}
	}
}

func BenchmarkQuery(b *testing.B) {
	g := gridGraph(30, 30, 1)
	e, _ := prepare(b, g, 40)
	ctx := context.Background()
	n := uint32(g.NodeCount())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := uint32(i) % n
		_, _ = e.Distance(ctx, s, n-1-s)
	}
}
