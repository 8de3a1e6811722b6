package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kebapps/pagesmith/internal/core"
	"github.com/kebapps/pagesmith/internal/pipeline"
	"github.com/kebapps/pagesmith/internal/publish"
)

func (s *Server) handleBuild(w http.ResponseWriter, req *http.Request) {
	var payload pipeline.Request
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, core.WrapError(core.ErrCodeInvalidRequest, err, "invalid JSON body"))
		return
	}
	if payload.TemplateID == "" {
		writeError(w, core.NewError(core.ErrCodeInvalidRequest, "templateId is required"))
		return
	}

	resp, err := s.builder.Build(req.Context(), payload)
	s.metrics.recordBuild(payload.TemplateID, err)
	if err != nil {
		s.log.Error("build failed",
			zap.String("templateId", payload.TemplateID),
			zap.String("projectId", payload.ProjectID),
			zap.Error(err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Build completed successfully",
		"projectId": resp.ProjectID,
		"urls":      resp.Locations,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	dir, err := s.builder.OutputDir(vars["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}

	rel := vars["path"]
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}

	full := filepath.Join(dir, filepath.FromSlash(rel))
	if !strings.HasPrefix(full, dir+string(filepath.Separator)) {
		writeError(w, core.NewError(core.ErrCodeInvalidRequest, "invalid preview path"))
		return
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		writeError(w, core.NewError(core.ErrCodeProjectNotFound, "no such file %q for project %q", rel, vars["projectId"]))
		return
	}

	f, err := os.Open(full)
	if err != nil {
		writeError(w, core.WrapError(core.ErrCodeProjectNotFound, err, "open %q for project %q", rel, vars["projectId"]))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", core.ContentTypeFor(full))
	// ServeFile would redirect paths ending in /index.html, so serve the
	// opened file directly.
	http.ServeContent(w, req, info.Name(), info.ModTime(), f)
}

func (s *Server) handleDownload(w http.ResponseWriter, req *http.Request) {
	projectID := req.URL.Query().Get("projectId")
	if projectID == "" {
		writeError(w, core.NewError(core.ErrCodeInvalidRequest, "projectId query parameter required"))
		return
	}

	dir, err := s.builder.OutputDir(projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="build.zip"`)
	if err := publish.WriteZip(w, dir); err != nil {
		// Headers are already out, all we can do is log.
		s.log.Error("zip stream failed", zap.String("projectId", projectID), zap.Error(err))
	}
}

func (s *Server) handleTemplates(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": s.registry.List(),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"templates": s.registry.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
