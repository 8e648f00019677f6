package restserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/snapshot"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/source"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/responseformat"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxEvalBody caps POST /api/eval payloads
const maxEvalBody = 8 << 20

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
	now        func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
		now:        time.Now,
	}
}

// snapshotHeaders identifies which snapshot an evaluation was computed from
func (h *Handlers) snapshotHeaders(s snapshot.Snapshot) map[string]string {
	age := s.Age(h.now())
	if age < 0 {
		age = 0
	}
	return map[string]string{
		"X-Snapshot-Id":  s.ID.String(),
		"X-Snapshot-Age": strconv.FormatInt(int64(age/time.Second), 10),
	}
}

// GetEval evaluates the latest cached snapshot
func (h *Handlers) GetEval(w http.ResponseWriter, req *http.Request) {
	latest, err := h.controller.cache.Latest()
	if errors.Is(err, snapshot.ErrEmpty) {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "no sensor data has been fetched yet")
		return
	}
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusInternalServerError, err.Error())
		return
	}

	resp := h.controller.evaluator.Evaluate(latest.Series)
	h.formatter.WriteResponse(w, req, http.StatusOK, resp, h.snapshotHeaders(latest))
}

// PostEval evaluates series supplied by the caller. The body may use any of
// the envelopes the sources understand. Nothing is cached.
func (h *Handlers) PostEval(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxEvalBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.formatter.WriteError(w, req, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.formatter.WriteError(w, req, http.StatusBadRequest, "could not read request body")
		return
	}

	raw, err := source.Unwrap(body)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, fmt.Sprintf("could not decode series: %v", err))
		return
	}

	resp := h.controller.evaluator.Evaluate(raw)
	h.formatter.WriteResponse(w, req, http.StatusOK, resp, nil)
}

// GetSeries relays the latest snapshot's series, normalized and sorted, for
// charting. The optional range parameter keeps only points within that
// duration of each series' newest point.
func (h *Handlers) GetSeries(w http.ResponseWriter, req *http.Request) {
	var window time.Duration
	if r := req.URL.Query().Get("range"); r != "" {
		d, err := config.ParseDuration(r)
		if err != nil || d <= 0 {
			h.formatter.WriteError(w, req, http.StatusBadRequest, fmt.Sprintf("invalid range %q", r))
			return
		}
		window = d
	}

	latest, err := h.controller.cache.Latest()
	if errors.Is(err, snapshot.ErrEmpty) {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "no sensor data has been fetched yet")
		return
	}
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusInternalServerError, err.Error())
		return
	}

	resp := SeriesResponse{
		SnapshotID: latest.ID.String(),
		FetchedAt:  latest.FetchedAt,
		Series:     make(map[string][]airquality.PreparedPoint, len(latest.Series)),
	}
	for _, name := range latest.Sensors() {
		points := airquality.Prepare(latest.Series, []string{name})
		if len(points) == 0 {
			continue
		}
		resp.Series[name] = trimToWindow(points, window)
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, resp, h.snapshotHeaders(latest))
}

// trimToWindow keeps the points within window of the newest one. Points
// must be sorted by time; a zero window keeps everything.
func trimToWindow(points []airquality.PreparedPoint, window time.Duration) []airquality.PreparedPoint {
	if window <= 0 || len(points) == 0 {
		return points
	}
	cutoff := points[len(points)-1].TS - float64(window.Milliseconds())
	i := 0
	for i < len(points) && points[i].TS < cutoff {
		i++
	}
	return points[i:]
}

// GetSnapshots lists the cached snapshots, newest first
func (h *Handlers) GetSnapshots(w http.ResponseWriter, req *http.Request) {
	list := h.controller.cache.List()
	infos := make([]SnapshotInfo, len(list))
	for i, s := range list {
		infos[i] = SnapshotInfo{
			ID:        s.ID.String(),
			FetchedAt: s.FetchedAt,
			Source:    s.Source,
			Sensors:   s.Sensors(),
		}
	}
	h.formatter.WriteResponse(w, req, http.StatusOK, infos, nil)
}

// GetSnapshotEval evaluates one specific cached snapshot
func (h *Handlers) GetSnapshotEval(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "invalid snapshot id")
		return
	}

	s, err := h.controller.cache.Get(id)
	if errors.Is(err, snapshot.ErrNotFound) {
		h.formatter.WriteError(w, req, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusInternalServerError, err.Error())
		return
	}

	resp := h.controller.evaluator.Evaluate(s.Series)
	h.formatter.WriteResponse(w, req, http.StatusOK, resp, h.snapshotHeaders(s))
}

// GetHealth reports liveness plus how much data is cached
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Snapshots: h.controller.cache.Len(),
	}
	if latest, err := h.controller.cache.Latest(); err == nil {
		fetched := latest.FetchedAt
		resp.LastFetch = &fetched
	}
	h.formatter.WriteResponse(w, req, http.StatusOK, resp, nil)
}

// Preflight answers CORS preflight requests for the API
func (h *Handlers) Preflight(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
	w.WriteHeader(http.StatusNoContent)
}
