// Package pipeline runs the build flow end to end: resolve the template,
// validate the config, synthesize an entry module, bundle it, emit the HTML
// shell and publish the output.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kebapps/pagesmith/internal/core"
	"github.com/kebapps/pagesmith/internal/publish"
	"github.com/kebapps/pagesmith/internal/registry"
)

// Request is one build-trigger: which template, with what configuration,
// under which project. An empty ProjectID gets a generated UUID.
type Request struct {
	ProjectID      string         `json:"projectId,omitempty"`
	TemplateID     string         `json:"templateId"`
	TemplateConfig map[string]any `json:"templateConfig"`
}

// Response reports where the built site ended up.
type Response struct {
	ProjectID string             `json:"projectId"`
	Locations []publish.Location `json:"urls,omitempty"`
}

type Service struct {
	log        *zap.Logger
	registry   *registry.Registry
	bundler    Bundler
	publishers []Publisher
	buildRoot  string
	timeout    time.Duration
	locks      *projectLocks
}

func NewService(log *zap.Logger, reg *registry.Registry, bundler Bundler, publishers []Publisher, buildRoot string, timeout time.Duration) *Service {
	return &Service{
		log:        log,
		registry:   reg,
		bundler:    bundler,
		publishers: publishers,
		buildRoot:  buildRoot,
		timeout:    timeout,
		locks:      newProjectLocks(),
	}
}

// Build runs the pipeline stages strictly in order. Each stage's output is a
// precondition for the next; any failure aborts the request. A rebuild with
// the same project id overwrites the prior output, last write wins.
func (s *Service) Build(ctx context.Context, req Request) (Response, error) {
	projectID := req.ProjectID
	if projectID == "" {
		projectID = uuid.NewString()
	} else if err := core.ValidateProjectID(projectID); err != nil {
		return Response{}, core.WrapError(core.ErrCodeInvalidProjectID, err, "project id %q", projectID)
	}

	desc, err := s.registry.Lookup(req.TemplateID)
	if err != nil {
		return Response{}, err
	}

	if err := desc.ValidateConfig(req.TemplateConfig); err != nil {
		return Response{}, err
	}

	unlock := s.locks.acquire(projectID)
	defer unlock()

	log := s.log.With(
		zap.String("projectId", projectID),
		zap.String("templateId", req.TemplateID))
	start := time.Now()
	log.Info("build started")

	// Fresh per-request temp dir for the entry module, never a shared path.
	tmpDir, err := os.MkdirTemp("", "pagesmith-entry-*")
	if err != nil {
		return Response{}, core.WrapError(core.ErrCodeBuildFailed, err, "create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	entryPath := filepath.Join(tmpDir, "entry.tsx")
	if err := core.WriteEntry(entryPath, desc.ComponentPath); err != nil {
		return Response{}, core.WrapError(core.ErrCodeBuildFailed, err, "write entry module")
	}

	outputDir := filepath.Join(s.buildRoot, projectID)
	if err := os.RemoveAll(outputDir); err != nil {
		return Response{}, core.WrapError(core.ErrCodeBuildFailed, err, "clear output dir")
	}

	buildCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	manifest, err := s.bundler.Build(buildCtx, entryPath, outputDir)
	if err != nil {
		return Response{}, err
	}

	title, _ := req.TemplateConfig["title"].(string)
	html, err := core.EmitHTML(title, manifest.Bundle, manifest.CSS, req.TemplateConfig)
	if err != nil {
		return Response{}, core.WrapError(core.ErrCodeBuildFailed, err, "emit html shell")
	}

	htmlPath := filepath.Join(outputDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return Response{}, core.WrapError(core.ErrCodeBuildFailed, err, "write html shell")
	}

	var locations []publish.Location
	for _, publisher := range s.publishers {
		locs, err := publisher.Publish(ctx, outputDir, projectID)
		if err != nil {
			return Response{}, err
		}
		locations = append(locations, locs...)
	}

	log.Info("build completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("published", len(locations)))

	return Response{ProjectID: projectID, Locations: locations}, nil
}

// OutputDir returns the build output directory for a project, or a
// PROJECT_NOT_FOUND error when no build exists for it.
func (s *Service) OutputDir(projectID string) (string, error) {
	if err := core.ValidateProjectID(projectID); err != nil {
		return "", core.WrapError(core.ErrCodeInvalidProjectID, err, "project id %q", projectID)
	}

	dir := filepath.Join(s.buildRoot, projectID)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", core.NewError(core.ErrCodeProjectNotFound, "no build output for project %q", projectID)
	}
	return dir, nil
}
