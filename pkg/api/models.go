package api

import "transit_router/pkg/tnr"

// DistanceRequest is the JSON body for POST /api/v1/distance. Either the
// node pair or the coordinate pair must be set.
type DistanceRequest struct {
	Source *uint32     `json:"source,omitempty"`
	Target *uint32     `json:"target,omitempty"`
	Start  *LatLngJSON `json:"start,omitempty"`
	End    *LatLngJSON `json:"end,omitempty"`
}

// LatLngJSON represents a lat/lng pair in JSON.
type LatLngJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceResponse is the JSON response for a successful distance query.
// Distance is omitted when the target is unreachable.
type DistanceResponse struct {
	Source    uint32   `json:"source"`
	Target    uint32   `json:"target"`
	Distance  *float64 `json:"distance,omitempty"`
	Reachable bool     `json:"reachable"`
	Method    string   `json:"method"`
	Cached    bool     `json:"cached,omitempty"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes     uint32         `json:"num_nodes"`
	NumEdges     int            `json:"num_edges"`
	NumShortcuts int            `json:"num_shortcuts"`
	Index        tnr.IndexStats `json:"index"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
