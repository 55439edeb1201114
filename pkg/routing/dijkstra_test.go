package routing

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/osm"

	"transit_router/pkg/ch"
	"transit_router/pkg/graph"
	osmparser "transit_router/pkg/osm"
	"transit_router/pkg/tnr"
)

// buildTestGraphAndCH creates a test graph and its CH overlay. Labels are
// OSM IDs; Build numbers nodes by first appearance in the edge list, so
// 10..40 become 0..3, 60 becomes 4 and 50 becomes 5.
//
//	10 ---100--- 20 ---200--- 30
//	|                          |
//	300                       400
//	|                          |
//	40 ---500--- 50 ---600--- 60
func buildTestGraphAndCH(t testing.TB) (*graph.Graph, *graph.CHGraph) {
	t.Helper()
	result := &osmparser.ParseResult{
		Edges: []osmparser.RawEdge{
			{FromNodeID: 10, ToNodeID: 20, Weight: 100},
			{FromNodeID: 20, ToNodeID: 30, Weight: 200},
			{FromNodeID: 10, ToNodeID: 40, Weight: 300},
			{FromNodeID: 30, ToNodeID: 60, Weight: 400},
			{FromNodeID: 40, ToNodeID: 50, Weight: 500},
			{FromNodeID: 50, ToNodeID: 60, Weight: 600},
		},
		NodeLat: map[osm.NodeID]float64{10: 1.300, 20: 1.300, 30: 1.300, 40: 1.301, 50: 1.301, 60: 1.301},
		NodeLon: map[osm.NodeID]float64{10: 103.800, 20: 103.801, 30: 103.802, 40: 103.800, 50: 103.801, 60: 103.802},
	}
	g := graph.Build(result)
	return g, ch.Contract(g)
}

// plainDijkstra runs a one-to-one Dijkstra with a linear-scan queue.
func plainDijkstra(g *graph.Graph, source, target uint32) float64 {
	dist := make([]float64, g.NumNodes)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0
	done := make([]bool, g.NumNodes)
	for {
		u, best := uint32(0), math.Inf(1)
		for i, d := range dist {
			if !done[i] && d < best {
				u, best = uint32(i), d
			}
		}
		if math.IsInf(best, 1) || u == target {
			return dist[target]
		}
		done[u] = true
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if nd := best + g.Weight[e]; nd < dist[g.Head[e]] {
				dist[g.Head[e]] = nd
			}
		}
	}
}

func toDistance(d float64) tnr.Distance { return tnr.Finite(d) }

func TestCHOracleAllPairs(t *testing.T) {
	g, chg := buildTestGraphAndCH(t)
	oracle := NewCHOracle(chg)
	ctx := context.Background()

	for s := uint32(0); s < g.NumNodes; s++ {
		for d := uint32(0); d < g.NumNodes; d++ {
			got, err := oracle.Distance(ctx, s, d)
			if err != nil {
				t.Fatalf("Distance(%d, %d): %v", s, d, err)
			}
			if want := toDistance(plainDijkstra(g, s, d)); got != want {
				t.Errorf("s=%d d=%d: CH=%v, Dijkstra=%v", s, d, got, want)
			}
		}
	}
}

func TestOraclesAgreeOnRandomGraph(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n = 80
	var edges []graph.Edge
	for i := 0; i < 150; i++ {
		edges = append(edges, graph.Edge{
			From:   uint32(rng.Intn(n)),
			To:     uint32(rng.Intn(n)),
			Weight: float64(1 + rng.Intn(40)),
		})
	}
	g := graph.FromEdges(n, edges)
	chOracle := NewCHOracle(ch.Contract(g))
	dijOracle := NewDijkstraOracle(g)
	ctx := context.Background()

	for s := uint32(0); s < n; s += 7 {
		for d := uint32(0); d < n; d += 3 {
			want := toDistance(plainDijkstra(g, s, d))
			a, err := chOracle.Distance(ctx, s, d)
			if err != nil {
				t.Fatal(err)
			}
			b, err := dijOracle.Distance(ctx, s, d)
			if err != nil {
				t.Fatal(err)
			}
			if a != want || b != want {
				t.Errorf("s=%d d=%d: CH=%v, bidirectional=%v, want %v", s, d, a, b, want)
			}
		}
	}
}

func TestOracleUnreachable(t *testing.T) {
	g := graph.FromEdges(4, []graph.Edge{
		{From: 0, To: 1, Weight: 3},
		{From: 2, To: 3, Weight: 4},
	})
	for name, o := range map[string]tnr.Oracle{
		"ch":       NewCHOracle(ch.Contract(g)),
		"dijkstra": NewDijkstraOracle(g),
	} {
		d, err := o.Distance(context.Background(), 0, 3)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if d.Reachable() {
			t.Errorf("%s: distance = %v, want unreachable", name, d)
		}
	}
}

func TestOracleNodeOutOfRange(t *testing.T) {
	g, chg := buildTestGraphAndCH(t)
	for name, o := range map[string]tnr.Oracle{
		"ch":       NewCHOracle(chg),
		"dijkstra": NewDijkstraOracle(g),
	} {
		_, err := o.Distance(context.Background(), 0, 99)
		if !errors.Is(err, tnr.ErrNodeOutOfRange) {
			t.Errorf("%s: err = %v, want ErrNodeOutOfRange", name, err)
		}
	}
}

func TestOracleIdentity(t *testing.T) {
	_, chg := buildTestGraphAndCH(t)
	d, err := NewCHOracle(chg).Distance(context.Background(), 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if d != tnr.Finite(0) {
		t.Errorf("distance = %v, want 0", d)
	}
}

func BenchmarkCHOracle(b *testing.B) {
	_, chg := buildTestGraphAndCH(b)
	oracle := NewCHOracle(chg)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = oracle.Distance(ctx, 0, 5)
	}
}
