// Package session wires one store, one location provider, one gateway, one
// report flow and one map presenter for the lifetime of the process.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/marine-sighting/internal/domain"
	"github.com/couchcryptid/marine-sighting/internal/location"
	"github.com/couchcryptid/marine-sighting/internal/mapview"
	"github.com/couchcryptid/marine-sighting/internal/observability"
	"github.com/couchcryptid/marine-sighting/internal/report"
	"github.com/couchcryptid/marine-sighting/internal/store"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

// Gateway is the sync gateway as seen by the session.
type Gateway interface {
	report.Gateway
	FetchAll(ctx context.Context) ([]domain.Sighting, error)
}

// Options tunes the startup fetch. Zero values pick the defaults.
type Options struct {
	FetchAttempts  int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Clock          clockwork.Clock
}

func (o Options) withDefaults() Options {
	if o.FetchAttempts <= 0 {
		o.FetchAttempts = 1
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 200 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 5 * time.Second
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

// Session is the shared context passed to every screen. Create it once.
type Session struct {
	Store    *store.Store
	Location *location.Provider
	Gateway  Gateway
	Report   *report.Flow
	Map      *mapview.Presenter

	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options
}

// New builds a session around the given platform and gateway.
func New(platform location.Platform, gateway Gateway, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Session {
	st := store.New()
	provider := location.NewProvider(platform, logger, metrics)

	s := &Session{
		Store:    st,
		Location: provider,
		Gateway:  gateway,
		Report:   report.NewFlow(provider, st, gateway, logger, metrics),
		Map:      mapview.NewPresenter(st),
		logger:   logger,
		metrics:  metrics,
		opts:     opts.withDefaults(),
	}

	if metrics != nil {
		st.Subscribe(func(uint64) { metrics.StoreSize.Set(float64(st.Len())) })
	}
	return s
}

// Bootstrap asks for location permission and loads the remote sightings.
// The fetch is retried with exponential backoff up to FetchAttempts times.
// A final failure is returned for the caller to display; the session stays
// usable either way.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.Location.RequestAuthorization()

	backoff := s.opts.InitialBackoff
	var err error
	for attempt := 1; attempt <= s.opts.FetchAttempts; attempt++ {
		if err = s.Refresh(ctx); err == nil {
			return nil
		}
		if attempt == s.opts.FetchAttempts || ctx.Err() != nil {
			break
		}
		s.logger.Warn("startup fetch failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !s.sleep(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, s.opts.MaxBackoff)
	}

	if s.metrics != nil {
		s.metrics.BootstrapFetchFailed.Inc()
	}
	s.logger.Error("startup fetch gave up", "attempts", s.opts.FetchAttempts, "error", err)
	return err
}

// Refresh fetches the remote set once and reconciles it into the store.
func (s *Session) Refresh(ctx context.Context) error {
	fetched, err := s.Gateway.FetchAll(ctx)
	if err != nil {
		return err
	}
	s.Store.Reconcile(fetched)
	s.logger.Info("sightings loaded", "fetched", len(fetched), "total", s.Store.Len())
	return nil
}

func (s *Session) sleep(ctx context.Context, d time.Duration) bool {
	timer := s.opts.Clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
