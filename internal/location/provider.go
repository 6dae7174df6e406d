// Package location owns the device location authorization state and the last
// accepted fix.
package location

import (
	"log/slog"
	"sync"

	"github.com/couchcryptid/marine-sighting/internal/domain"
	"github.com/couchcryptid/marine-sighting/internal/observability"
)

// Platform is the host location service. RequestAuthorization shows the
// permission prompt; the answer arrives later through
// Provider.OnAuthorizationChange, and fixes through Provider.OnLocationUpdate.
type Platform interface {
	RequestAuthorization()
}

// Observer is called after every state change. Delivery happens on the
// goroutine that delivered the platform callback.
type Observer func(domain.LocationState)

// Provider exposes the authorization state machine:
//
//	Unknown -> {Authorized, Denied, Restricted} on a permission response
//	Authorized -> Available(coordinate) on each newer fix
//
// It never moves back to Unknown and never re-prompts on its own.
type Provider struct {
	platform Platform
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu        sync.Mutex
	state     domain.LocationState
	granted   bool
	requested bool
	observer  Observer
}

// NewProvider creates a provider in the Unknown state.
func NewProvider(platform Platform, logger *slog.Logger, metrics *observability.Metrics) *Provider {
	return &Provider{
		platform: platform,
		logger:   logger,
		metrics:  metrics,
		state:    domain.LocationState{Kind: domain.LocationUnknown, UpdatedAt: domain.Now()},
	}
}

// Subscribe registers the single observer, replacing any previous one.
func (p *Provider) Subscribe(fn Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = fn
}

// RequestAuthorization prompts the platform once, and only while the state
// is Unknown. Later calls have no effect.
func (p *Provider) RequestAuthorization() {
	p.mu.Lock()
	if p.state.Kind != domain.LocationUnknown || p.requested {
		p.mu.Unlock()
		return
	}
	p.requested = true
	p.mu.Unlock()

	p.logger.Info("requesting location authorization")
	p.platform.RequestAuthorization()
}

// CurrentState returns the latest known state without blocking on the platform.
func (p *Provider) CurrentState() domain.LocationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// OnAuthorizationChange is the platform callback for permission responses
// and settings changes.
func (p *Provider) OnAuthorizationChange(status domain.AuthorizationStatus) {
	p.mu.Lock()
	next, changed := p.applyAuthorization(status)
	observer := p.observer
	p.mu.Unlock()

	if !changed {
		return
	}
	p.logger.Info("location authorization changed", "status", status.String(), "state", next.Kind.String())
	p.publish(observer, next)
}

// OnLocationUpdate is the platform callback for a new fix. A fix is accepted
// only after authorization was granted, only when its sequence is newer than
// the last accepted one, and only when its coordinate is in range.
func (p *Provider) OnLocationUpdate(fix domain.Fix) {
	if err := fix.Coordinate.Validate(); err != nil {
		p.logger.Warn("dropping invalid fix", "seq", fix.Seq, "error", err)
		return
	}

	p.mu.Lock()
	if !p.granted || (p.state.FixSeq != 0 && fix.Seq <= p.state.FixSeq) {
		kind, last := p.state.Kind, p.state.FixSeq
		p.mu.Unlock()
		p.logger.Debug("ignoring fix", "seq", fix.Seq, "last_seq", last, "state", kind.String())
		return
	}
	p.state = domain.LocationState{
		Kind:       domain.LocationAvailable,
		Coordinate: fix.Coordinate,
		FixSeq:     fix.Seq,
		UpdatedAt:  domain.Now(),
	}
	next := p.state
	observer := p.observer
	p.mu.Unlock()

	p.logger.Debug("fix accepted", "seq", fix.Seq, "lat", fix.Coordinate.Latitude, "lon", fix.Coordinate.Longitude)
	p.publish(observer, next)
}

// applyAuthorization must be called with mu held.
func (p *Provider) applyAuthorization(status domain.AuthorizationStatus) (domain.LocationState, bool) {
	var kind domain.LocationKind
	switch status {
	case domain.AuthorizationGranted:
		if p.granted {
			return p.state, false
		}
		p.granted = true
		kind = domain.LocationAuthorized
	case domain.AuthorizationDenied:
		p.granted = false
		kind = domain.LocationDenied
	case domain.AuthorizationRestricted:
		p.granted = false
		kind = domain.LocationRestricted
	default:
		// Not-determined never moves the machine back to Unknown.
		return p.state, false
	}
	if kind == p.state.Kind {
		return p.state, false
	}

	// Revoking permission forgets the last fix; the sequence is kept so a
	// stale fix cannot be replayed after a later grant.
	p.state = domain.LocationState{Kind: kind, FixSeq: p.state.FixSeq, UpdatedAt: domain.Now()}
	return p.state, true
}

func (p *Provider) publish(observer Observer, state domain.LocationState) {
	if p.metrics != nil {
		p.metrics.LocationTransitions.WithLabelValues(state.Kind.String()).Inc()
	}
	if observer != nil {
		observer(state)
	}
}
