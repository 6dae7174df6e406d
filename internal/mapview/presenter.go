// Package mapview projects the sighting store into map annotations.
package mapview

import (
	"math"

	"github.com/couchcryptid/marine-sighting/internal/domain"
)

// Default viewport when there is nothing to show.
const defaultSpan = 10.0

// Annotation is one marker handed to the map.
type Annotation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
	Confirmed bool    `json:"confirmed"`
}

// Region is the center/zoom hint for the map.
type Region struct {
	Center         domain.Coordinate `json:"center"`
	LatitudeDelta  float64           `json:"latitude_delta"`
	LongitudeDelta float64           `json:"longitude_delta"`
}

// Source is the read side of the sighting store.
type Source interface {
	All() []domain.Sighting
}

// Notifier delivers store change notifications.
type Notifier interface {
	Subscribe(fn func(version uint64))
}

// Renderer is the map capability. It redraws from what it is given.
type Renderer interface {
	Render(annotations []Annotation, region Region)
}

// Presenter holds no state of its own; every call recomputes from the source.
type Presenter struct {
	source Source
}

// NewPresenter creates a presenter over source.
func NewPresenter(source Source) *Presenter {
	return &Presenter{source: source}
}

// Annotations returns one annotation per sighting, in store order.
func (p *Presenter) Annotations() []Annotation {
	return Project(p.source.All())
}

// Count returns the number of sightings on the map.
func (p *Presenter) Count() int {
	return len(p.source.All())
}

// Region returns a viewport that fits every sighting.
func (p *Presenter) Region() Region {
	return Fit(p.Annotations())
}

// Attach renders once and then again after every store change.
func (p *Presenter) Attach(n Notifier, r Renderer) {
	n.Subscribe(func(uint64) { p.Refresh(r) })
	p.Refresh(r)
}

// Refresh pushes the current projection to r.
func (p *Presenter) Refresh(r Renderer) {
	annotations := p.Annotations()
	r.Render(annotations, Fit(annotations))
}

// Project maps sightings to annotations.
func Project(sightings []domain.Sighting) []Annotation {
	out := make([]Annotation, len(sightings))
	for i, s := range sightings {
		out[i] = Annotation{
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Label:     Label(s),
			Confirmed: s.Confirmed(),
		}
	}
	return out
}

// Label is the marker text for a sighting.
func Label(s domain.Sighting) string {
	if s.PlaceName != "" {
		return s.Species + " (" + s.PlaceName + ")"
	}
	return s.Species
}

// Fit returns the bounding region of annotations with a 20% margin. An
// empty set yields the default world-centered viewport.
func Fit(annotations []Annotation) Region {
	if len(annotations) == 0 {
		return Region{LatitudeDelta: defaultSpan, LongitudeDelta: defaultSpan}
	}

	minLat, maxLat := annotations[0].Latitude, annotations[0].Latitude
	minLon, maxLon := annotations[0].Longitude, annotations[0].Longitude
	for _, a := range annotations[1:] {
		minLat = math.Min(minLat, a.Latitude)
		maxLat = math.Max(maxLat, a.Latitude)
		minLon = math.Min(minLon, a.Longitude)
		maxLon = math.Max(maxLon, a.Longitude)
	}

	return Region{
		Center: domain.Coordinate{
			Latitude:  (minLat + maxLat) / 2,
			Longitude: (minLon + maxLon) / 2,
		},
		LatitudeDelta:  span(maxLat-minLat, 180),
		LongitudeDelta: span(maxLon-minLon, 360),
	}
}

func span(extent, limit float64) float64 {
	const minSpan = 0.05
	return math.Min(math.Max(extent*1.2, minSpan), limit)
}
