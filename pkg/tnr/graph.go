package tnr

import "context"

// Graph is the weighted, undirected input graph. Nodes are dense indices
// in [0, NodeCount()).
type Graph interface {
	NodeCount() int
	// ForEachNeighbor calls fn once per edge incident to u.
	ForEachNeighbor(u uint32, fn func(v uint32, w float64))
	// NodeRank returns the contraction rank of u. Higher ranks are more
	// important. ok is false for nodes without a rank.
	NodeRank(u uint32) (rank uint32, ok bool)
}

// Oracle answers exact point-to-point shortest-distance queries.
// A missing path is reported as Unreachable with a nil error; errors are
// reserved for failures such as cancellation.
type Oracle interface {
	Distance(ctx context.Context, u, v uint32) (Distance, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, u, v uint32) (Distance, error)

// Distance calls f(ctx, u, v).
func (f OracleFunc) Distance(ctx context.Context, u, v uint32) (Distance, error) {
	return f(ctx, u, v)
}
