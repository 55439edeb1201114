package graph

import (
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/paulmach/osm"

	osmparser "transit_router/pkg/osm"
)

// Edge is an undirected weighted edge between two dense node indices.
type Edge struct {
	From, To uint32
	Weight   float64
}

// Build creates an undirected CSR Graph from parsed OSM edges.
func Build(result *osmparser.ParseResult) *Graph {
	if len(result.Edges) == 0 {
		return &Graph{}
	}

	// Collect all unique node IDs and build a compact mapping.
	nodeSet := make(map[osm.NodeID]uint32)
	var nodeIDs []osm.NodeID

	addNode := func(id osm.NodeID) uint32 {
		if idx, ok := nodeSet[id]; ok {
			return idx
		}
		idx := uint32(len(nodeIDs))
		nodeSet[id] = idx
		nodeIDs = append(nodeIDs, id)
		return idx
	}

	edges := make([]Edge, len(result.Edges))
	for i, e := range result.Edges {
		edges[i] = Edge{From: addNode(e.FromNodeID), To: addNode(e.ToNodeID), Weight: e.Weight}
	}

	g := FromEdges(uint32(len(nodeIDs)), edges)

	g.NodeID = make([]int64, g.NumNodes)
	g.NodeLat = make([]float64, g.NumNodes)
	g.NodeLon = make([]float64, g.NumNodes)
	for idx, id := range nodeIDs {
		g.NodeID[idx] = int64(id)
		g.NodeLat[idx] = result.NodeLat[id]
		g.NodeLon[idx] = result.NodeLon[id]
	}
	return g
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsNaN(w) && !math.IsInf(w, 1)
}

// FromEdges builds an undirected CSR graph over numNodes nodes.
// Parallel edges collapse to the minimum weight; self-loops, edges with
// out-of-range endpoints and edges with negative, NaN or infinite weight are
// dropped.
func FromEdges(numNodes uint32, edges []Edge) *Graph {
	type arc struct {
		from, to uint32
		weight   float64
	}

	arcs := make([]arc, 0, 2*len(edges))
	var dropped int
	for _, e := range edges {
		if e.From == e.To || e.From >= numNodes || e.To >= numNodes || !validWeight(e.Weight) {
			dropped++
			continue
		}
		arcs = append(arcs, arc{e.From, e.To, e.Weight}, arc{e.To, e.From, e.Weight})
	}
	if dropped > 0 {
		log.Warnf("Dropped %d invalid edges (self-loops, bad endpoints or weights)", dropped)
	}

	// Sort by (from, to, weight) so the first arc of each run is the lightest.
	sort.Slice(arcs, func(i, j int) bool {
		if arcs[i].from != arcs[j].from {
			return arcs[i].from < arcs[j].from
		}
		if arcs[i].to != arcs[j].to {
			return arcs[i].to < arcs[j].to
		}
		return arcs[i].weight < arcs[j].weight
	})

	unique := arcs[:0]
	for i, a := range arcs {
		if i > 0 && a.from == arcs[i-1].from && a.to == arcs[i-1].to {
			continue
		}
		unique = append(unique, a)
	}

	numEdges := uint32(len(unique))
	firstOut := make([]uint32, numNodes+1)
	head := make([]uint32, numEdges)
	weight := make([]float64, numEdges)

	for i, a := range unique {
		head[i] = a.to
		weight[i] = a.weight
		firstOut[a.from+1]++
	}
	for i := uint32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}

	return &Graph{
		NumNodes: numNodes,
		NumEdges: numEdges,
		FirstOut: firstOut,
		Head:     head,
		Weight:   weight,
	}
}
