package ch

import (
	"container/heap"
	"fmt"

	"github.com/charmbracelet/log"

	"transit_router/pkg/graph"
)

// adjEntry is an undirected edge in the mutable adjacency list. Every edge
// {u, v} appears in both adj[u] and adj[v].
type adjEntry struct {
	to     uint32
	weight float64
}

// Criterion is the node ordering heuristic. Nodes with the lowest score are
// contracted first.
type Criterion string

const (
	// EdgeDifference scores shortcuts added minus edges removed.
	EdgeDifference Criterion = "edge_difference"
	// ShortcutsAdded scores the shortcuts a contraction may add.
	ShortcutsAdded Criterion = "shortcuts_added"
	// EdgesRemoved scores the edges a contraction removes (the degree).
	EdgesRemoved Criterion = "edges_removed"
)

// Criteria lists every supported criterion.
var Criteria = []Criterion{EdgeDifference, ShortcutsAdded, EdgesRemoved}

// ParseCriterion validates a criterion name. The empty string selects
// EdgeDifference.
func ParseCriterion(s string) (Criterion, error) {
	if s == "" {
		return EdgeDifference, nil
	}
	for _, c := range Criteria {
		if Criterion(s) == c {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown ordering %q (want one of %v)", s, Criteria)
}

// Options configures Contract.
type Options struct {
	Criterion Criterion // defaults to EdgeDifference
	// Offline fixes the order up front from scores on the input graph.
	// Otherwise scores are re-evaluated lazily as the graph shrinks and
	// include the contracted-neighbor and level terms.
	Offline bool
}

// Contract performs Contraction Hierarchies preprocessing on the given graph.
// Every node is contracted; rank is the contraction order, so the nodes
// contracted last are the most important. The ordering never affects
// distances, only the number of shortcuts and the ranks.
func Contract(g *graph.Graph, opts ...Options) *graph.CHGraph {
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Criterion == "" {
		opt.Criterion = EdgeDifference
	}

	n := g.NumNodes
	if n == 0 {
		return &graph.CHGraph{
			NodeID:       g.NodeID,
			UpFirstOut:   []uint32{0},
			OrigFirstOut: []uint32{0},
		}
	}

	adj := make([][]adjEntry, n)
	for u := uint32(0); u < n; u++ {
		start, end := g.EdgesFrom(u)
		adj[u] = make([]adjEntry, 0, end-start)
		for e := start; e < end; e++ {
			adj[u] = append(adj[u], adjEntry{to: g.Head[e], weight: g.Weight[e]})
		}
	}

	contracted := make([]bool, n)
	rank := make([]uint32, n)
	contractedNeighbors := make([]int, n)
	level := make([]int, n)

	pq := make(priorityQueue, n)
	for i := uint32(0); i < n; i++ {
		pq[i] = &pqEntry{
			node:     i,
			priority: opt.priority(adj, i, contracted, contractedNeighbors[i], level[i]),
			index:    int(i),
		}
	}
	heap.Init(&pq)

	ws := newWitnessSearch(n)

	log.Info("starting contraction", "nodes", n, "ordering", opt.Criterion, "offline", opt.Offline)

	var totalShortcuts int
	order := uint32(0)

	for pq.Len() > 0 {
		entry := heap.Pop(&pq).(*pqEntry)
		node := entry.node
		if contracted[node] {
			continue
		}

		// Lazy update: re-insert if the node is no longer the cheapest.
		if !opt.Offline {
			newPriority := opt.priority(adj, node, contracted, contractedNeighbors[node], level[node])
			if newPriority > entry.priority && pq.Len() > 0 && newPriority > pq[0].priority {
				entry.priority = newPriority
				heap.Push(&pq, entry)
				continue
			}
		}

		shortcuts := findShortcuts(ws, adj, node, contracted)

		contracted[node] = true
		rank[node] = order
		order++

		for _, sc := range shortcuts {
			if addOrImprove(adj, sc.from, sc.to, sc.weight) {
				totalShortcuts++
			}
		}

		for _, e := range adj[node] {
			if !contracted[e.to] {
				contractedNeighbors[e.to]++
				level[e.to] = max(level[e.to], level[node]+1)
			}
		}

		if order%logInterval(n-order) == 0 {
			log.Debug("contraction progress", "contracted", order, "nodes", n, "shortcuts", totalShortcuts)
		}
	}

	ratio := 0.0
	if g.NumEdges > 0 {
		ratio = float64(2*totalShortcuts) / float64(g.NumEdges)
	}
	log.Info("contraction complete", "shortcuts", totalShortcuts, "ratio", ratio)

	return buildOverlay(g, adj, rank)
}

// logInterval is frequent near the end, where each node is expensive.
func logInterval(remaining uint32) uint32 {
	switch {
	case remaining < 1000:
		return 100
	case remaining < 10000:
		return 1000
	case remaining < 100000:
		return 10000
	default:
		return 50000
	}
}

// shortcut is an undirected shortcut edge to be added.
type shortcut struct {
	from, to uint32
	weight   float64
}

// addOrImprove inserts the undirected edge {a, b} or lowers the weight of an
// existing one. It reports whether a new edge was created.
func addOrImprove(adj [][]adjEntry, a, b uint32, w float64) bool {
	for i := range adj[a] {
		if adj[a][i].to == b {
			if w < adj[a][i].weight {
				adj[a][i].weight = w
				for j := range adj[b] {
					if adj[b][j].to == a {
						adj[b][j].weight = w
					}
				}
			}
			return false
		}
	}
	adj[a] = append(adj[a], adjEntry{to: b, weight: w})
	adj[b] = append(adj[b], adjEntry{to: a, weight: w})
	return true
}

// findShortcuts determines which shortcuts are needed when contracting a node.
// One batched witness search runs per active neighbor and covers every
// later neighbor in the list, so each unordered pair is examined once.
func findShortcuts(ws *witnessSearch, adj [][]adjEntry, node uint32, contracted []bool) []shortcut {
	var nbrs []adjEntry
	for _, e := range adj[node] {
		if !contracted[e.to] {
			nbrs = append(nbrs, e)
		}
	}
	if len(nbrs) < 2 {
		return nil
	}

	var shortcuts []shortcut
	for i, in := range nbrs[:len(nbrs)-1] {
		rest := nbrs[i+1:]
		var maxOut float64
		for _, out := range rest {
			maxOut = max(maxOut, out.weight)
		}

		ws.run(adj, contracted, in.to, node, in.weight+maxOut)

		for _, out := range rest {
			scWeight := in.weight + out.weight
			if !ws.reaches(out.to, scWeight) {
				shortcuts = append(shortcuts, shortcut{from: in.to, to: out.to, weight: scWeight})
			}
		}
	}
	return shortcuts
}

// priority returns the score of an uncontracted node (lower = contract
// first). Shortcuts are estimated as one per neighbor pair.
func (o Options) priority(adj [][]adjEntry, node uint32, contracted []bool, contractedNeighbors, level int) int {
	deg := 0
	for _, e := range adj[node] {
		if !contracted[e.to] {
			deg++
		}
	}
	shortcuts := deg * (deg - 1) / 2

	var score int
	switch o.Criterion {
	case ShortcutsAdded:
		score = shortcuts
	case EdgesRemoved:
		score = deg
	default:
		score = shortcuts - deg
	}
	if o.Offline {
		return score
	}
	return score + 2*contractedNeighbors + level
}

// buildOverlay creates the upward CSR graph from the contracted adjacency
// lists and node ranks.
func buildOverlay(orig *graph.Graph, adj [][]adjEntry, rank []uint32) *graph.CHGraph {
	n := orig.NumNodes

	firstOut := make([]uint32, n+1)
	for u := uint32(0); u < n; u++ {
		for _, e := range adj[u] {
			if rank[u] < rank[e.to] {
				firstOut[u+1]++
			}
		}
	}
	for i := uint32(1); i <= n; i++ {
		firstOut[i] += firstOut[i-1]
	}

	head := make([]uint32, firstOut[n])
	weight := make([]float64, firstOut[n])
	pos := make([]uint32, n)
	copy(pos, firstOut[:n])
	for u := uint32(0); u < n; u++ {
		for _, e := range adj[u] {
			if rank[u] < rank[e.to] {
				head[pos[u]] = e.to
				weight[pos[u]] = e.weight
				pos[u]++
			}
		}
	}

	log.Debug("overlay built", "upward_arcs", len(head))

	return &graph.CHGraph{
		NumNodes:     n,
		NodeID:       orig.NodeID,
		NodeLat:      orig.NodeLat,
		NodeLon:      orig.NodeLon,
		Rank:         rank,
		UpFirstOut:   firstOut,
		UpHead:       head,
		UpWeight:     weight,
		OrigFirstOut: orig.FirstOut,
		OrigHead:     orig.Head,
		OrigWeight:   orig.Weight,
	}
}

// Priority queue implementation for contraction ordering.

type pqEntry struct {
	node     uint32
	priority int
	index    int
}

type priorityQueue []*pqEntry

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].node < pq[j].node
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	entry := x.(*pqEntry)
	entry.index = len(*pq)
	*pq = append(*pq, entry)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*pq = old[:n-1]
	return entry
}
