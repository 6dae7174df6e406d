// Package store holds the session's canonical, ordered list of sightings.
package store

import (
	"sync"

	"github.com/couchcryptid/marine-sighting/internal/domain"
)

// Listener is notified after every mutation with the new store version.
type Listener = func(version uint64)

type entry struct {
	sighting domain.Sighting
	local    bool // appended by this session rather than fetched
}

// Store is an in-memory ordered collection of sightings. Every mutation runs
// under one mutex; listeners are called after the lock is released.
type Store struct {
	mu          sync.Mutex
	entries     []entry
	nextSeq     uint64
	version     uint64
	localAppend bool
	listeners   []Listener
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Append adds s at the end of the collection and returns its index. It never
// rejects input. The returned index and the stored copy carry a fresh
// LocalSeq, which is also written back through the returned sighting.
func (s *Store) Append(sighting domain.Sighting) (int, domain.Sighting) {
	s.mu.Lock()
	sighting = s.stamp(sighting)
	s.entries = append(s.entries, entry{sighting: sighting, local: true})
	s.localAppend = true
	idx := len(s.entries) - 1
	version, listeners := s.bump()
	s.mu.Unlock()

	notify(listeners, version)
	return idx, sighting
}

// ReplaceAll atomically replaces the whole collection with sightings, in
// their given order.
func (s *Store) ReplaceAll(sightings []domain.Sighting) {
	s.mu.Lock()
	s.entries = s.fetchedEntries(sightings)
	s.localAppend = false
	version, listeners := s.bump()
	s.mu.Unlock()

	notify(listeners, version)
}

// Reconcile applies a remote fetch without losing local additions. When no
// local append has happened it is ReplaceAll. Otherwise the fetched set
// comes first, followed by the locally appended entries whose confirmed ID
// is not part of the fetched set. Correlation is by remote ID only.
func (s *Store) Reconcile(fetched []domain.Sighting) {
	s.mu.Lock()
	if !s.localAppend {
		s.entries = s.fetchedEntries(fetched)
	} else {
		remoteIDs := make(map[int64]struct{}, len(fetched))
		for _, f := range fetched {
			if f.ID != nil {
				remoteIDs[*f.ID] = struct{}{}
			}
		}
		merged := s.fetchedEntries(fetched)
		for _, e := range s.entries {
			if !e.local {
				continue
			}
			if e.sighting.ID != nil {
				if _, ok := remoteIDs[*e.sighting.ID]; ok {
					continue
				}
			}
			merged = append(merged, e)
		}
		s.entries = merged
	}
	version, listeners := s.bump()
	s.mu.Unlock()

	notify(listeners, version)
}

// Confirm records the server-confirmed copy of the entry with the given
// LocalSeq, keeping its position. It reports false when no such entry exists.
func (s *Store) Confirm(localSeq uint64, confirmed domain.Sighting) bool {
	s.mu.Lock()
	found := false
	for i := range s.entries {
		if s.entries[i].sighting.LocalSeq != localSeq {
			continue
		}
		confirmed.LocalSeq = localSeq
		if confirmed.ID != nil {
			confirmed.ID = domain.Int64Ptr(*confirmed.ID)
		}
		s.entries[i].sighting = confirmed
		found = true
		break
	}
	if !found {
		s.mu.Unlock()
		return false
	}
	version, listeners := s.bump()
	s.mu.Unlock()

	notify(listeners, version)
	return true
}

// All returns a snapshot of the collection in order. The result shares no
// memory with the store.
func (s *Store) All() []domain.Sighting {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Sighting, len(s.entries))
	for i, e := range s.entries {
		out[i] = cloneSighting(e.sighting)
	}
	return out
}

// Len returns the number of stored sightings.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Version increases with every mutation.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers fn to be called after each mutation.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) stamp(sighting domain.Sighting) domain.Sighting {
	s.nextSeq++
	sighting = cloneSighting(sighting)
	sighting.LocalSeq = s.nextSeq
	return sighting
}

func (s *Store) fetchedEntries(sightings []domain.Sighting) []entry {
	entries := make([]entry, 0, len(sightings))
	for _, f := range sightings {
		entries = append(entries, entry{sighting: s.stamp(f)})
	}
	return entries
}

// bump must be called with mu held.
func (s *Store) bump() (uint64, []Listener) {
	s.version++
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	return s.version, listeners
}

func notify(listeners []Listener, version uint64) {
	for _, fn := range listeners {
		fn(version)
	}
}

func cloneSighting(in domain.Sighting) domain.Sighting {
	out := in
	if in.ID != nil {
		out.ID = domain.Int64Ptr(*in.ID)
	}
	return out
}
