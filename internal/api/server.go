package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/companyapi/internal/company"
	"github.com/dgallion1/companyapi/internal/fetcher"
	"github.com/dgallion1/companyapi/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for company lookups.
type Server struct {
	router   chi.Router
	service  *company.Service
	stats    *fetcher.LatencyStats
	metrics  *metrics.Metrics
	upstream string
	log      *slog.Logger
}

// Deps are the collaborators a Server routes requests to. Stats and Metrics
// are optional.
type Deps struct {
	Service  *company.Service
	Stats    *fetcher.LatencyStats
	Metrics  *metrics.Metrics
	Upstream string
	Log      *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(d Deps) *Server {
	s := &Server{
		service:  d.Service,
		stats:    d.Stats,
		metrics:  d.Metrics,
		upstream: d.Upstream,
		log:      d.Log,
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
	if s.metrics != nil {
		r.Use(Metrics(s.metrics))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/api/stats/upstream", s.handleUpstreamStats)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/companies", func(r chi.Router) {
		r.Use(CORS)
		r.Get("/", s.handleGetCompany)
		r.Get("/{id}", s.handleGetCompany)
		r.Options("/", handlePreflight)
		r.Options("/{id}", handlePreflight)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
