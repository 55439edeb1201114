package graph

// NoRank marks a node that took no part in the contraction ordering.
const NoRank = -1

// Graph is an undirected weighted graph in CSR (Compressed Sparse Row) format.
// Every undirected edge {u, v} is stored twice, once as u→v and once as v→u.
type Graph struct {
	NumNodes uint32
	NumEdges uint32    // number of stored arcs (twice the undirected edge count)
	FirstOut []uint32  // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] are arcs from node i
	Head     []uint32  // len: NumEdges; target node for each arc
	Weight   []float64 // len: NumEdges; non-negative edge weight

	// Optional per-node metadata carried through from the source data.
	NodeID  []int64   // external (OSM) node ID, nil for synthetic graphs
	NodeLat []float64 // nil when the graph has no coordinates
	NodeLon []float64
}

// EdgesFrom returns the range of arc indices for arcs originating from node u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return int(g.NumNodes) }

// ForEachNeighbor calls fn for every arc leaving u.
func (g *Graph) ForEachNeighbor(u uint32, fn func(v uint32, w float64)) {
	start, end := g.EdgesFrom(u)
	for e := start; e < end; e++ {
		fn(g.Head[e], g.Weight[e])
	}
}

// NodeRank reports that a plain graph carries no ranking.
func (g *Graph) NodeRank(u uint32) (uint32, bool) { return 0, false }

// HasCoords reports whether every node has a coordinate.
func (g *Graph) HasCoords() bool {
	return g.NumNodes > 0 && uint32(len(g.NodeLat)) == g.NumNodes && uint32(len(g.NodeLon)) == g.NumNodes
}

// RankedGraph annotates a graph with an externally supplied node ordering.
// Ranks[i] == NoRank (or a missing entry) means node i has no rank.
type RankedGraph struct {
	*Graph
	Ranks []int64
}

// NodeRank returns the rank of u, if any.
func (rg *RankedGraph) NodeRank(u uint32) (uint32, bool) {
	if int(u) >= len(rg.Ranks) || rg.Ranks[u] < 0 {
		return 0, false
	}
	return uint32(rg.Ranks[u]), true
}

// CHGraph holds the output of contraction hierarchies preprocessing together
// with the original graph it was built from.
type CHGraph struct {
	NumNodes uint32
	NodeID   []int64
	NodeLat  []float64
	NodeLon  []float64

	// Rank is the contraction order: higher rank = contracted later = more important.
	Rank []uint32

	// Upward graph: arcs u→v with Rank[u] < Rank[v], including shortcuts.
	// The graph is undirected, so the same overlay serves forward and backward search.
	UpFirstOut []uint32
	UpHead     []uint32
	UpWeight   []float64

	// Original (uncontracted) arcs.
	OrigFirstOut []uint32
	OrigHead     []uint32
	OrigWeight   []float64
}

// NodeCount returns the number of nodes.
func (chg *CHGraph) NodeCount() int { return int(chg.NumNodes) }

// ForEachNeighbor iterates the original arcs leaving u; shortcuts are not visited.
func (chg *CHGraph) ForEachNeighbor(u uint32, fn func(v uint32, w float64)) {
	for e := chg.OrigFirstOut[u]; e < chg.OrigFirstOut[u+1]; e++ {
		fn(chg.OrigHead[e], chg.OrigWeight[e])
	}
}

// NodeRank returns the contraction rank of u.
func (chg *CHGraph) NodeRank(u uint32) (uint32, bool) {
	if int(u) >= len(chg.Rank) {
		return 0, false
	}
	return chg.Rank[u], true
}

// NumShortcuts counts upward arcs that are not original edges.
func (chg *CHGraph) NumShortcuts() int {
	var n int
	for u := uint32(0); u < chg.NumNodes; u++ {
		for e := chg.UpFirstOut[u]; e < chg.UpFirstOut[u+1]; e++ {
			if !chg.isOriginal(u, chg.UpHead[e], chg.UpWeight[e]) {
				n++
			}
		}
	}
	return n
}

func (chg *CHGraph) isOriginal(u, v uint32, w float64) bool {
	for e := chg.OrigFirstOut[u]; e < chg.OrigFirstOut[u+1]; e++ {
		if chg.OrigHead[e] == v && chg.OrigWeight[e] == w {
			return true
		}
	}
	return false
}

// Base returns a Graph view over the original arcs. Slices are shared.
func (chg *CHGraph) Base() *Graph {
	return &Graph{
		NumNodes: chg.NumNodes,
		NumEdges: uint32(len(chg.OrigHead)),
		FirstOut: chg.OrigFirstOut,
		Head:     chg.OrigHead,
		Weight:   chg.OrigWeight,
		NodeID:   chg.NodeID,
		NodeLat:  chg.NodeLat,
		NodeLon:  chg.NodeLon,
	}
}
