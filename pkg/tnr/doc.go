// Package tnr implements Transit Node Routing on top of a contraction
// hierarchy ordering.
//
// Preprocessing selects the k highest-ranked nodes as transit nodes, fills a
// k×k distance table between them using a point-to-point oracle, and runs a
// bounded Dijkstra from every node that stops at transit nodes. Each bounded
// search yields the node's access nodes and its local search space.
//
// A query between s and t is answered directly by the oracle when the two
// search spaces intersect (the pair is local). Otherwise the answer is the
// best composition d(s, a) + D[a][b] + d(b, t) over access nodes a of s and
// b of t, with the oracle as a fallback when no finite composition exists.
package tnr
