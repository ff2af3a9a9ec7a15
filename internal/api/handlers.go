package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"routeframe/internal/engine"
	"routeframe/internal/logging"
	"routeframe/internal/metrics"
	"routeframe/internal/model"
	"routeframe/internal/solution"
	"routeframe/internal/store"
)

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if rb, ok := s.Broker.(*RedisBroker); ok {
		if err := rb.Ping(r.Context()); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "redis: "+err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateSolutionHandler registers an engine solution document.
func (s *Server) CreateSolutionHandler(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	start := time.Now()
	res, err := engine.Decode(http.MaxBytesReader(w, r.Body, maxSolutionBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", err.Error(), r.URL.Path)
			return
		}
		writeProblem(w, http.StatusBadRequest, "Invalid Solution", err.Error(), r.URL.Path)
		return
	}
	info, err := s.Store.Put(r.Context(), pr.Tenant, r.URL.Query().Get("name"), res)
	if err != nil {
		s.internalError(w, r, "store solution failed", err)
		return
	}
	metrics.SolutionsLoaded.Inc()
	metrics.SolutionSteps.Observe(float64(info.Steps))
	logging.LogOperation(logging.FromContext(r.Context()), "solution_loaded",
		slog.String("tenant", pr.Tenant),
		slog.String("solution_id", info.ID),
		slog.Int("steps", info.Steps),
		slog.Duration("duration", time.Since(start)))
	s.emit(r.Context(), s.newEvent(model.EventSolutionLoaded, pr.Tenant, info.ID, map[string]any{"steps": info.Steps, "vehicles": info.Vehicles}))

	w.Header().Set("Location", "/v1/solutions/"+info.ID)
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) ListSolutionsHandler(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "limit must be a non-negative integer", r.URL.Path)
			return
		}
		limit = n
	}
	items, next, err := s.Store.List(r.Context(), pr.Tenant, q.Get("cursor"), limit)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "unknown cursor", r.URL.Path)
		return
	}
	if err != nil {
		s.internalError(w, r, "list solutions failed", err)
		return
	}
	writeJSON(w, http.StatusOK, model.SolutionList{Items: items, NextCursor: next})
}

// GetSolutionHandler returns the structured view of a solution.
func (s *Server) GetSolutionHandler(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	_, sol, ok := s.lookup(w, r, pr.Tenant)
	if !ok {
		return
	}
	dict, err := sol.ToDict()
	if err != nil {
		s.internalError(w, r, "serialize solution failed", err)
		return
	}
	writeJSON(w, http.StatusOK, dict)
}

// RoutesHandler returns the tabular view as a JSON frame or, with
// format=csv, as CSV.
func (s *Server) RoutesHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "format must be json or csv", r.URL.Path)
		return
	}
	pr, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	_, sol, ok := s.lookup(w, r, pr.Tenant)
	if !ok {
		return
	}
	frame, err := sol.Routes()
	if err != nil {
		s.internalError(w, r, "build routes view failed", err)
		return
	}
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := frame.WriteCSV(w); err != nil {
			logging.LogError(logging.FromContext(r.Context()), "write csv failed", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) DeleteSolutionHandler(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	id := httprouter.ParamsFromContext(r.Context()).ByName("id")
	if err := s.Store.Delete(r.Context(), pr.Tenant, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "solution not found", r.URL.Path)
			return
		}
		s.internalError(w, r, "delete solution failed", err)
		return
	}
	s.emit(r.Context(), s.newEvent(model.EventSolutionDeleted, pr.Tenant, id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// lookup resolves the :id parameter within tenantID, writing 404 when it is
// unknown there.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, tenantID string) (model.SolutionInfo, *solution.Solution, bool) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("id")
	info, res, err := s.Store.Get(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "solution not found", r.URL.Path)
			return model.SolutionInfo{}, nil, false
		}
		s.internalError(w, r, "load solution failed", err)
		return model.SolutionInfo{}, nil, false
	}
	return info, solution.New(res), true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.LogError(logging.FromContext(r.Context()), msg, err, slog.String("path", r.URL.Path))
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error(), r.URL.Path)
}

func fileSize(path string) int {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return int(fi.Size())
}
