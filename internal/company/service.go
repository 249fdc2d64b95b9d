package company

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/companyapi/internal/doctree"
	"github.com/dgallion1/companyapi/internal/fetcher"
	"github.com/dgallion1/companyapi/internal/metrics"
	"github.com/dgallion1/companyapi/internal/parser"
)

// Fetcher retrieves the raw upstream document for an identifier.
type Fetcher interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Service answers company lookups: validate, fetch, convert, respond.
type Service struct {
	fetcher Fetcher
	parser  parser.Parser
	log     *slog.Logger
	metrics *metrics.Metrics
	stats   *fetcher.LatencyStats
}

type Option func(*Service)

// WithMetrics records fetch outcomes and response codes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStats feeds upstream fetch latencies into stats.
func WithStats(stats *fetcher.LatencyStats) Option {
	return func(s *Service) { s.stats = stats }
}

// NewService builds a Service. A nil log falls back to slog.Default().
func NewService(f Fetcher, p parser.Parser, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		fetcher: f,
		parser:  p,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle runs one lookup. It never panics and always returns a complete
// envelope; every fetch failure is reported as 404.
func (s *Service) Handle(ctx context.Context, id string) (env Envelope) {
	log := s.log.With("company_id", id)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling company request", "panic", r)
			env = errorEnvelope(http.StatusInternalServerError, "Internal server error", fmt.Sprint(r))
		}
		s.metrics.ObserveResponse(env.StatusCode)
	}()

	if id == "" {
		return errorEnvelope(http.StatusBadRequest, "Missing company ID", "")
	}

	log.Info("retrieving company")
	start := time.Now()
	data, err := s.fetcher.Fetch(ctx, id)
	s.observeFetch(time.Since(start), err)
	if err != nil {
		log.Warn("company fetch failed",
			"kind", fetcher.Kind(err),
			"not_found", fetcher.IsNotFound(err),
			"error", err,
		)
		return errorEnvelope(http.StatusNotFound, fmt.Sprintf("Company with ID %s not found", id), "")
	}

	tree, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		log.Error("company document conversion failed", "error", err)
		return errorEnvelope(http.StatusInternalServerError, "Internal server error", err.Error())
	}

	body, err := doctree.Encode(tree)
	if err != nil {
		log.Error("encode company document", "error", err)
		return errorEnvelope(http.StatusInternalServerError, "Internal server error", err.Error())
	}
	return newEnvelope(http.StatusOK, body)
}

func (s *Service) observeFetch(d time.Duration, err error) {
	kind := fetcher.Kind(err)
	s.metrics.ObserveFetch(kind, d)
	if s.stats != nil {
		s.stats.Record(d, kind)
	}
}
