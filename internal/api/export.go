package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"routeframe/internal/logging"
	"routeframe/internal/metrics"
	"routeframe/internal/model"
)

var errPathEscapes = errors.New("path escapes the export directory")

// resolveExportPath joins rel onto dir and rejects anything that would land
// outside dir.
func resolveExportPath(dir, rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", errors.New("path is required")
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) {
		return "", errPathEscapes
	}
	full := filepath.Join(dir, rel)
	back, err := filepath.Rel(dir, full)
	if err != nil || back == "." || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", errPathEscapes
	}
	return full, nil
}

// ExportHandler writes the canonical JSON of a solution below the export
// directory and announces it.
func (s *Server) ExportHandler(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	var req model.ExportRequest
	if err := decodeStrict(http.MaxBytesReader(w, r.Body, 1<<16), &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid export request: "+err.Error(), r.URL.Path)
		return
	}
	dest, err := resolveExportPath(s.Cfg.Export.Dir, req.Path)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), r.URL.Path)
		return
	}
	info, sol, ok := s.lookup(w, r, pr.Tenant)
	if !ok {
		return
	}
	atomic := s.Cfg.Export.Atomic
	if req.Atomic != nil {
		atomic = *req.Atomic
	}
	mode := "plain"
	save := sol.SaveJSON
	if atomic {
		mode = "atomic"
		save = sol.SaveJSONAtomic
	}

	start := time.Now()
	if err := save(dest); err != nil {
		metrics.Exports.WithLabelValues(mode, "error").Inc()
		s.internalError(w, r, "export failed", fmt.Errorf("export %s: %w", info.ID, err))
		return
	}
	metrics.Exports.WithLabelValues(mode, "ok").Inc()

	out := model.ExportResult{
		SolutionID: info.ID,
		Path:       filepath.ToSlash(filepath.Clean(req.Path)),
		Bytes:      fileSize(dest),
		Atomic:     atomic,
		TS:         s.now().UTC().Format(time.RFC3339),
	}
	logging.LogOperation(logging.FromContext(r.Context()), "solution_exported",
		slog.String("solution_id", info.ID),
		slog.String("path", out.Path),
		slog.String("mode", mode),
		slog.Int("bytes", out.Bytes),
		slog.Duration("duration", time.Since(start)))
	s.emit(r.Context(), s.newEvent(model.EventSolutionExported, pr.Tenant, info.ID, map[string]any{
		"path":   out.Path,
		"bytes":  out.Bytes,
		"atomic": atomic,
	}))
	writeJSON(w, http.StatusOK, out)
}
