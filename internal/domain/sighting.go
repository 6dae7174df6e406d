package domain

import (
	"fmt"
	"math"
	"strings"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether the coordinate is within geographic range.
func (c Coordinate) Validate() error {
	if !finite(c.Latitude) || !finite(c.Longitude) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, c.Latitude, c.Longitude)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90,90]", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180,180]", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Sighting is a single marine-wildlife observation.
type Sighting struct {
	ID          *int64  `json:"id,omitempty"`
	Species     string  `json:"species"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PlaceName   string  `json:"place_name,omitempty"`

	// LocalSeq is assigned by the store on insertion and never leaves the
	// process. Zero means the sighting has not been stored yet.
	LocalSeq uint64 `json:"-"`
}

// NewSighting builds an unconfirmed sighting at the given coordinate.
// Species is trimmed; the description is kept as typed.
func NewSighting(species, description string, at Coordinate) Sighting {
	return Sighting{
		Species:     strings.TrimSpace(species),
		Description: description,
		Latitude:    at.Latitude,
		Longitude:   at.Longitude,
	}
}

// Coordinate returns the sighting's position.
func (s Sighting) Coordinate() Coordinate {
	return Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Confirmed reports whether the remote store has assigned an ID.
func (s Sighting) Confirmed() bool {
	return s.ID != nil
}

// Validate checks the fields the remote store requires.
func (s Sighting) Validate() error {
	if strings.TrimSpace(s.Species) == "" {
		return ErrInvalidSpecies
	}
	return s.Coordinate().Validate()
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
