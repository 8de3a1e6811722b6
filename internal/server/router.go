// Package server exposes the build pipeline over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kebapps/pagesmith/internal/pipeline"
	"github.com/kebapps/pagesmith/internal/registry"
)

// Builder is the part of the pipeline the HTTP layer depends on.
type Builder interface {
	Build(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
	OutputDir(projectID string) (string, error)
}

type Server struct {
	log      *zap.Logger
	builder  Builder
	registry *registry.Registry
	metrics  *metrics
	cors     []string
	router   *mux.Router
}

func New(log *zap.Logger, builder Builder, reg *registry.Registry, corsOrigins []string) *Server {
	s := &Server{
		log:      log,
		builder:  builder,
		registry: reg,
		metrics:  newMetrics(),
		cors:     corsOrigins,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.observe)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/build", s.handleBuild).Methods(http.MethodPost)
	api.HandleFunc("/templates", s.handleTemplates).Methods(http.MethodGet)
	api.HandleFunc("/download", s.handleDownload).Methods(http.MethodGet)
	api.HandleFunc("/preview/{projectId}", s.handlePreview).Methods(http.MethodGet)
	api.HandleFunc("/preview/{projectId}/{path:.*}", s.handlePreview).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Handler returns the full middleware chain, CORS outermost.
func (s *Server) Handler() http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(s.cors),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(s.router)
}
