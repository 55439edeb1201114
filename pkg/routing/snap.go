package routing

import (
	"errors"

	"github.com/tidwall/rtree"

	"transit_router/pkg/geo"
	"transit_router/pkg/graph"
)

// DefaultMaxSnapMeters is the snapping radius used by NewSnapper.
const DefaultMaxSnapMeters = 500.0

// ErrPointTooFar is returned when the query point is too far from any road.
var ErrPointTooFar = errors.New("point too far from road")

// ErrNoCoordinates is returned when snapping on a graph without coordinates.
var ErrNoCoordinates = errors.New("graph has no node coordinates")

// SnapResult is a query point resolved to its nearest graph node.
type SnapResult struct {
	Node uint32
	Dist float64 // meters from the query point to the node
}

// Snapper resolves lat/lng points to the nearest node using an R-tree
// over node coordinates.
type Snapper struct {
	tr        rtree.RTreeG[uint32]
	lat, lon  []float64
	maxMeters float64
}

// NewSnapper indexes every node of g that carries coordinates.
func NewSnapper(lat, lon []float64) *Snapper {
	s := &Snapper{lat: lat, lon: lon, maxMeters: DefaultMaxSnapMeters}
	for i := range lat {
		p := [2]float64{lon[i], lat[i]}
		s.tr.Insert(p, p, uint32(i))
	}
	return s
}

// NewSnapperFromCH builds a snapper over a contracted graph's coordinates.
func NewSnapperFromCH(chg *graph.CHGraph) (*Snapper, error) {
	if len(chg.NodeLat) == 0 && chg.NumNodes > 0 {
		return nil, ErrNoCoordinates
	}
	return NewSnapper(chg.NodeLat, chg.NodeLon), nil
}

// WithMaxDistance sets the snapping radius in meters.
func (s *Snapper) WithMaxDistance(meters float64) *Snapper {
	s.maxMeters = meters
	return s
}

// Len returns the number of indexed nodes.
func (s *Snapper) Len() int { return s.tr.Len() }

// Snap returns the nearest node within the snapping radius. Ties go to
// the lower node index.
func (s *Snapper) Snap(lat, lng float64) (SnapResult, error) {
	dLat, dLon := geo.RadiusDegrees(lat, s.maxMeters)
	lo := [2]float64{lng - dLon, lat - dLat}
	hi := [2]float64{lng + dLon, lat + dLat}

	best := SnapResult{Dist: s.maxMeters}
	found := false
	s.tr.Search(lo, hi, func(_, _ [2]float64, node uint32) bool {
		d := geo.Haversine(lat, lng, s.lat[node], s.lon[node])
		if d < best.Dist || (d == best.Dist && (!found || node < best.Node)) {
			best = SnapResult{Node: node, Dist: d}
			found = true
		}
		return true
	})
	if !found {
		return SnapResult{}, ErrPointTooFar
	}
	return best, nil
}
