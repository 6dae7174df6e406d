package location

import (
	"github.com/couchcryptid/marine-sighting/internal/domain"
)

// StaticPlatform is a Platform for hosts without a location service, such as
// the command-line client. It answers the permission prompt with a fixed
// status and, when granted, delivers a single fix.
type StaticPlatform struct {
	Status domain.AuthorizationStatus
	Fix    *domain.Coordinate

	provider *Provider
}

// Attach connects the platform to the provider its callbacks are delivered to.
func (s *StaticPlatform) Attach(p *Provider) {
	s.provider = p
}

// RequestAuthorization answers immediately with the configured status.
func (s *StaticPlatform) RequestAuthorization() {
	if s.provider == nil {
		return
	}
	s.provider.OnAuthorizationChange(s.Status)
	if s.Status == domain.AuthorizationGranted && s.Fix != nil {
		s.provider.OnLocationUpdate(domain.Fix{Coordinate: *s.Fix, Seq: 1})
	}
}
