// Package registry is the in-memory sightings store behind sightingd.
package registry

import (
	"context"
	"sync"

	"github.com/couchcryptid/marine-sighting/internal/domain"
)

// Registry assigns increasing IDs and remembers idempotency keys so a
// replayed create returns the original sighting.
type Registry struct {
	mu        sync.RWMutex
	sightings []domain.Sighting
	byKey     map[string]int // idempotency key -> index
	nextID    int64
}

// New creates an empty registry. IDs start at 1.
func New() *Registry {
	return &Registry{byKey: make(map[string]int)}
}

// Create validates and stores s. When key was seen before the original
// sighting is returned with created=false.
func (r *Registry) Create(_ context.Context, key string, s domain.Sighting) (domain.Sighting, bool, error) {
	if err := s.Validate(); err != nil {
		return domain.Sighting{}, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if key != "" {
		if idx, ok := r.byKey[key]; ok {
			return clone(r.sightings[idx]), false, nil
		}
	}

	r.nextID++
	s.ID = domain.Int64Ptr(r.nextID)
	s.LocalSeq = 0
	r.sightings = append(r.sightings, s)
	if key != "" {
		r.byKey[key] = len(r.sightings) - 1
	}
	return clone(s), true, nil
}

// List returns every sighting in creation order.
func (r *Registry) List(_ context.Context) []domain.Sighting {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Sighting, len(r.sightings))
	for i, s := range r.sightings {
		out[i] = clone(s)
	}
	return out
}

// CheckReadiness always succeeds; the registry has no external dependencies.
func (r *Registry) CheckReadiness(_ context.Context) error {
	return nil
}

func clone(s domain.Sighting) domain.Sighting {
	if s.ID != nil {
		s.ID = domain.Int64Ptr(*s.ID)
	}
	return s
}
