package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/regsplit/internal/config"
	"github.com/dgallion1/regsplit/internal/pipeline"
	"github.com/dgallion1/regsplit/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StaticPrefix is where locally stored images are served.
const StaticPrefix = "/static/images"

// Server is the HTTP API server for regsplit.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	runner       *pipeline.Runner
	store        storage.Store
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		runner:       orch.Runner(),
		store:        orch.Runner().Store(),
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(CORS(s.cfg.CORSOrigins))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Post("/split-pdf", s.handleSplit)

	if local, ok := s.store.(*storage.LocalStore); ok {
		fs := http.StripPrefix(StaticPrefix+"/", http.FileServer(http.Dir(local.Dir())))
		r.Get(StaticPrefix+"/*", fs.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/split", s.handleSplit)
		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/images", s.handleListImages)
		r.Delete("/api/images/{name}", s.handleDeleteImage)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
