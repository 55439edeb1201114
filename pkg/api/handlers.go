package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"transit_router/pkg/cache"
	"transit_router/pkg/routing"
	"transit_router/pkg/tnr"
)

// Querier answers node-to-node distance queries.
type Querier interface {
	Query(ctx context.Context, s, t uint32) (tnr.Result, error)
}

// Snapper resolves coordinates to graph nodes.
type Snapper interface {
	Snap(lat, lng float64) (routing.SnapResult, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	querier Querier
	stats   StatsResponse
	snapper Snapper
	cache   cache.Cache
	metrics *Metrics
	logger  *log.Logger
}

// Option configures Handlers.
type Option func(*Handlers)

// WithSnapper enables coordinate requests.
func WithSnapper(s Snapper) Option { return func(h *Handlers) { h.snapper = s } }

// WithCache stores answers in c.
func WithCache(c cache.Cache) Option { return func(h *Handlers) { h.cache = c } }

// WithMetrics records query metrics in m.
func WithMetrics(m *Metrics) Option { return func(h *Handlers) { h.metrics = m } }

// WithLogger sets the logger for request errors.
func WithLogger(l *log.Logger) Option { return func(h *Handlers) { h.logger = l } }

// NewHandlers creates handlers with the given querier.
func NewHandlers(q Querier, stats StatsResponse, opts ...Option) *Handlers {
	h := &Handlers{querier: q, stats: stats, logger: log.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleDistance handles POST /api/v1/distance.
func (h *Handlers) HandleDistance(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req DistanceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	s, t, ok := h.resolve(w, req)
	if !ok {
		return
	}

	ctx := r.Context()
	start := time.Now()

	if h.cache != nil {
		d, hit, err := h.cache.Get(ctx, s, t)
		if err != nil {
			h.logger.Warn("cache lookup failed", "err", err)
		}
		if hit {
			h.metrics.cacheHit()
			h.writeJSON(w, newDistanceResponse(s, t, d, "cache", true))
			return
		}
	}

	res, err := h.querier.Query(ctx, s, t)
	if err != nil {
		switch {
		case errors.Is(err, tnr.ErrMissingAccessData):
			h.writeError(w, http.StatusBadRequest, "invalid_node", "")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			h.writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
		default:
			h.logger.Error("distance query failed", "source", s, "target", t, "err", err)
			h.writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}
	method := res.Method.String()
	h.metrics.observe(method, time.Since(start))

	if h.cache != nil {
		if err := h.cache.Set(ctx, s, t, res.Distance); err != nil {
			h.logger.Warn("cache store failed", "err", err)
		}
	}

	h.writeJSON(w, newDistanceResponse(s, t, res.Distance, method, false))
}

// resolve turns a request into a node pair, writing the error response
// itself when it fails.
func (h *Handlers) resolve(w http.ResponseWriter, req DistanceRequest) (s, t uint32, ok bool) {
	switch {
	case req.Source != nil && req.Target != nil:
		return *req.Source, *req.Target, true
	case req.Start != nil && req.End != nil:
		if h.snapper == nil {
			h.writeError(w, http.StatusBadRequest, "coordinates_unsupported", "")
			return 0, 0, false
		}
	default:
		h.writeError(w, http.StatusBadRequest, "invalid_request", "")
		return 0, 0, false
	}

	if err := validateCoord(*req.Start); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return 0, 0, false
	}
	if err := validateCoord(*req.End); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return 0, 0, false
	}

	from, err := h.snapper.Snap(req.Start.Lat, req.Start.Lng)
	if err != nil {
		h.writeSnapError(w, err, "start")
		return 0, 0, false
	}
	to, err := h.snapper.Snap(req.End.Lat, req.End.Lng)
	if err != nil {
		h.writeSnapError(w, err, "end")
		return 0, 0, false
	}
	return from.Node, to.Node, true
}

func (h *Handlers) writeSnapError(w http.ResponseWriter, err error, field string) {
	if errors.Is(err, routing.ErrPointTooFar) {
		h.writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_road", field)
		return
	}
	h.logger.Error("snap failed", "field", field, "err", err)
	h.writeError(w, http.StatusInternalServerError, "internal_error", field)
}

func newDistanceResponse(s, t uint32, d tnr.Distance, method string, cached bool) DistanceResponse {
	resp := DistanceResponse{Source: s, Target: t, Method: method, Cached: cached}
	if v, ok := d.Value(); ok {
		resp.Distance = &v
		resp.Reachable = true
	}
	return resp
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.stats)
}

func validateCoord(ll LatLngJSON) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

func (h *Handlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("write response", "err", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, code, field string) {
	h.metrics.failed(code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
