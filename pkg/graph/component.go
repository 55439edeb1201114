package graph

// UnionFind implements a disjoint-set data structure with path halving
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the size of the set containing x.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

func connect(g *Graph) *UnionFind {
	uf := NewUnionFind(g.NumNodes)
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			uf.Union(u, g.Head[e])
		}
	}
	return uf
}

// Components labels every node with a dense component number (0, 1, ...)
// in order of first appearance, and returns the number of components.
func Components(g *Graph) (labels []uint32, count int) {
	uf := connect(g)
	labels = make([]uint32, g.NumNodes)
	byRoot := make(map[uint32]uint32)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.Find(i)
		label, ok := byRoot[root]
		if !ok {
			label = uint32(len(byRoot))
			byRoot[root] = label
		}
		labels[i] = label
	}
	return labels, len(byRoot)
}

// LargestComponent returns the node indices belonging to the largest
// connected component, in ascending order.
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	uf := connect(g)

	bestRoot := uint32(0)
	bestSize := uint32(0)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.Find(i)
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}

	nodes := make([]uint32, 0, bestSize)
	for i := uint32(0); i < g.NumNodes; i++ {
		if uf.Find(i) == bestRoot {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// FilterToComponent creates a new graph containing only the specified nodes,
// renumbered in the order given. Node metadata is carried over.
func FilterToComponent(g *Graph, nodes []uint32) *Graph {
	if len(nodes) == 0 {
		return &Graph{}
	}

	oldToNew := make(map[uint32]uint32, len(nodes))
	for newIdx, oldIdx := range nodes {
		oldToNew[oldIdx] = uint32(newIdx)
	}

	var edges []Edge
	for _, oldU := range nodes {
		start, end := g.EdgesFrom(oldU)
		for e := start; e < end; e++ {
			oldV := g.Head[e]
			// Each undirected edge is stored twice; keep one copy.
			if oldV < oldU {
				continue
			}
			if newV, ok := oldToNew[oldV]; ok {
				edges = append(edges, Edge{From: oldToNew[oldU], To: newV, Weight: g.Weight[e]})
			}
		}
	}

	out := FromEdges(uint32(len(nodes)), edges)

	if g.NodeID != nil {
		out.NodeID = make([]int64, len(nodes))
		for newIdx, oldIdx := range nodes {
			out.NodeID[newIdx] = g.NodeID[oldIdx]
		}
	}
	if g.HasCoords() {
		out.NodeLat = make([]float64, len(nodes))
		out.NodeLon = make([]float64, len(nodes))
		for newIdx, oldIdx := range nodes {
			out.NodeLat[newIdx] = g.NodeLat[oldIdx]
			out.NodeLon[newIdx] = g.NodeLon[oldIdx]
		}
	}
	return out
}
