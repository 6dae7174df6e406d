package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/marine-sighting/internal/domain"
	"github.com/couchcryptid/marine-sighting/internal/observability"
)

const (
	idempotencyHeader = "Idempotency-Key"
	maxBodyBytes      = 64 << 10
)

// Registry stores sightings for the server.
type Registry interface {
	Create(ctx context.Context, key string, s domain.Sighting) (domain.Sighting, bool, error)
	List(ctx context.Context) []domain.Sighting
	CheckReadiness(ctx context.Context) error
}

// Publisher announces newly created sightings. Optional.
type Publisher interface {
	Publish(ctx context.Context, s domain.Sighting) error
}

// Deps are the collaborators behind the sightings routes. Geocoder and
// Publisher may be nil.
type Deps struct {
	Registry  Registry
	Geocoder  domain.Geocoder
	Publisher Publisher
}

// Server exposes the sightings API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with /sightings, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, deps Deps, logger *slog.Logger, metrics *observability.Metrics) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:    deps,
		logger:  logger,
		metrics: metrics,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(deps.Registry))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/sightings", s.handleList)
	r.Post("/sightings", s.handleCreate)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Registry.List(r.Context()))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in domain.Sighting
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.ID = nil
	in.PlaceName = ""

	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in = domain.EnrichWithPlaceName(r.Context(), in, s.deps.Geocoder, s.logger)

	created, isNew, err := s.deps.Registry.Create(r.Context(), r.Header.Get(idempotencyHeader), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSpecies) || errors.Is(err, domain.ErrInvalidCoordinate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("create sighting failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !isNew {
		if s.metrics != nil {
			s.metrics.SightingsDeduped.Inc()
		}
		sharedobs.WriteJSON(w, http.StatusOK, created)
		return
	}

	if s.metrics != nil {
		s.metrics.SightingsCreated.Inc()
	}
	s.logger.Info("sighting created", "id", *created.ID, "species", created.Species, "place", created.PlaceName)
	s.publish(r.Context(), created)
	sharedobs.WriteJSON(w, http.StatusCreated, created)
}

// publish is best-effort: a Kafka outage never fails the create.
func (s *Server) publish(ctx context.Context, created domain.Sighting) {
	if s.deps.Publisher == nil {
		return
	}
	outcome := "success"
	if err := s.deps.Publisher.Publish(ctx, created); err != nil {
		outcome = "error"
		s.logger.Warn("publish sighting failed", "id", *created.ID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.SightingsPublished.WithLabelValues(outcome).Inc()
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
