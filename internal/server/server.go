// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search pipeline over HTTP for the web
// front end.
package server

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pdiddy/paper-scout/internal/filestore"
	"github.com/pdiddy/paper-scout/internal/pipeline"
	"github.com/pdiddy/paper-scout/internal/venues"
	"github.com/pdiddy/paper-scout/pkg/types"
)

// Runner executes a search batch. The production implementation wraps
// the pipeline against the live search API; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, topics []types.Topic, settings types.Settings, groupBy pipeline.Grouping, w io.Writer) (types.GroupedResults, []string, error)
}

// PDFFetcher retrieves PDFs for a report bundle into destRoot,
// returning saved paths relative to it keyed by paper ID.
type PDFFetcher interface {
	Fetch(ctx context.Context, groups types.GroupedResults, destRoot string, w io.Writer) (map[string]string, error)
}

// Server holds the handler dependencies.
type Server struct {
	defs    *venues.Definitions
	cfg     types.ServerConfig
	report  types.ReportConfig
	runner  Runner
	fetcher PDFFetcher
	store   *filestore.Store
	logw    io.Writer
}

// New builds a Server. The log writer receives pipeline progress lines.
func New(defs *venues.Definitions, cfg types.ServerConfig, report types.ReportConfig, runner Runner, fetcher PDFFetcher, logw io.Writer) *Server {
	return &Server{
		defs:    defs,
		cfg:     cfg,
		report:  report,
		runner:  runner,
		fetcher: fetcher,
		store:   filestore.New(),
		logw:    logw,
	}
}

// Router assembles the route table.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/venues", s.handleVenues)
		r.Post("/search", s.handleSearch)
		r.Post("/reports", s.handleCreateReport)
		r.Get("/reports/{id}", s.handleGetReport)
	})

	return r
}

// ListenAndServe runs the HTTP server until the listener fails.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.cfg.Addr, s.Router())
}
