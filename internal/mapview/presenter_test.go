package mapview

import (
	"testing"

	"github.com/couchcryptid/marine-sighting/internal/domain"
	"github.com/couchcryptid/marine-sighting/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	frames  [][]Annotation
	regions []Region
}

func (r *recordingRenderer) Render(annotations []Annotation, region Region) {
	r.frames = append(r.frames, annotations)
	r.regions = append(r.regions, region)
}

func TestPresenter_EmptyStore(t *testing.T) {
	p := NewPresenter(store.New())

	assert.Empty(t, p.Annotations())
	assert.Zero(t, p.Count())
	assert.Equal(t, Region{LatitudeDelta: 10, LongitudeDelta: 10}, p.Region())
}

func TestPresenter_ProjectsInStoreOrder(t *testing.T) {
	st := store.New()
	st.ReplaceAll([]domain.Sighting{
		{ID: domain.Int64Ptr(1), Species: "Baleia", Latitude: -23.8, Longitude: -45.3, PlaceName: "Ilhabela"},
		{ID: domain.Int64Ptr(2), Species: "Tubarão", Latitude: -24.0, Longitude: -46.3},
	})
	st.Append(domain.Sighting{Species: "Tartaruga", Latitude: -23.5, Longitude: -46.6})

	p := NewPresenter(st)
	got := p.Annotations()

	assert.Equal(t, []Annotation{
		{Latitude: -23.8, Longitude: -45.3, Label: "Baleia (Ilhabela)", Confirmed: true},
		{Latitude: -24.0, Longitude: -46.3, Label: "Tubarão", Confirmed: true},
		{Latitude: -23.5, Longitude: -46.6, Label: "Tartaruga", Confirmed: false},
	}, got)
	assert.Equal(t, 3, p.Count())
}

func TestPresenter_RecomputesOnEveryCall(t *testing.T) {
	st := store.New()
	p := NewPresenter(st)
	assert.Zero(t, p.Count())

	st.Append(domain.Sighting{Species: "Golfinho"})
	assert.Equal(t, 1, p.Count())

	st.ReplaceAll(nil)
	assert.Zero(t, p.Count())
}

func TestPresenter_AttachRedrawsOnChange(t *testing.T) {
	st := store.New()
	p := NewPresenter(st)
	r := &recordingRenderer{}

	p.Attach(st, r)
	require.Len(t, r.frames, 1)
	assert.Empty(t, r.frames[0])

	st.Append(domain.Sighting{Species: "Tartaruga", Latitude: -23.5, Longitude: -46.6})
	require.Len(t, r.frames, 2)
	require.Len(t, r.frames[1], 1)
	assert.Equal(t, "Tartaruga", r.frames[1][0].Label)
	assert.Equal(t, domain.Coordinate{Latitude: -23.5, Longitude: -46.6}, r.regions[1].Center)
}

func TestFit_SinglePointUsesMinimumSpan(t *testing.T) {
	region := Fit([]Annotation{{Latitude: -23.5, Longitude: -46.6}})

	assert.Equal(t, -23.5, region.Center.Latitude)
	assert.Equal(t, -46.6, region.Center.Longitude)
	assert.InDelta(t, 0.05, region.LatitudeDelta, 1e-9)
	assert.InDelta(t, 0.05, region.LongitudeDelta, 1e-9)
}

func TestFit_BoundingBox(t *testing.T) {
	region := Fit([]Annotation{
		{Latitude: -24, Longitude: -47},
		{Latitude: -22, Longitude: -45},
	})

	assert.InDelta(t, -23, region.Center.Latitude, 1e-9)
	assert.InDelta(t, -46, region.Center.Longitude, 1e-9)
	assert.InDelta(t, 2.4, region.LatitudeDelta, 1e-9)
	assert.InDelta(t, 2.4, region.LongitudeDelta, 1e-9)
}

func TestFit_ClampsToWorld(t *testing.T) {
	region := Fit([]Annotation{
		{Latitude: -90, Longitude: -180},
		{Latitude: 90, Longitude: 180},
	})

	assert.InDelta(t, 180, region.LatitudeDelta, 1e-9)
	assert.InDelta(t, 360, region.LongitudeDelta, 1e-9)
}
