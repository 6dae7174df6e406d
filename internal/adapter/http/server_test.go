package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/marine-sighting/internal/adapter/http"
	"github.com/couchcryptid/marine-sighting/internal/adapter/remote"
	"github.com/couchcryptid/marine-sighting/internal/domain"
	"github.com/couchcryptid/marine-sighting/internal/observability"
	"github.com/couchcryptid/marine-sighting/internal/registry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type notReadyRegistry struct {
	*registry.Registry
	err error
}

func (m *notReadyRegistry) CheckReadiness(_ context.Context) error { return m.err }

type stubGeocoder struct {
	place string
	err   error
}

func (g *stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{PlaceName: g.place}, g.err
}

type recordingPublisher struct {
	published []domain.Sighting
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, s domain.Sighting) error {
	p.published = append(p.published, s)
	return p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(deps httpadapter.Deps) (*httpadapter.Server, *observability.Metrics) {
	if deps.Registry == nil {
		deps.Registry = registry.New()
	}
	metrics := observability.NewMetricsForTesting()
	return httpadapter.NewServer(":0", deps, discardLogger(), metrics), metrics
}

func post(t *testing.T, srv http.Handler, body, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sightings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(httpadapter.Deps{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(httpadapter.Deps{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	reg := &notReadyRegistry{Registry: registry.New(), err: fmt.Errorf("not ready yet")}
	srv, _ := newTestServer(httpadapter.Deps{Registry: reg})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(httpadapter.Deps{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- sightings ---

func TestListEmptyReturnsArray(t *testing.T) {
	srv, _ := newTestServer(httpadapter.Deps{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sightings", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateAssignsID(t *testing.T) {
	pub := &recordingPublisher{}
	srv, metrics := newTestServer(httpadapter.Deps{Publisher: pub})

	rec := post(t, srv, `{"species":"Tartaruga","description":"vista na praia","latitude":-23.5,"longitude":-46.6}`, "")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1,"species":"Tartaruga","description":"vista na praia","latitude":-23.5,"longitude":-46.6}`, rec.Body.String())
	require.Len(t, pub.published, 1)
	assert.Equal(t, int64(1), *pub.published[0].ID)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SightingsCreated), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SightingsPublished.WithLabelValues("success")), 0)
}

func TestCreateIgnoresClientID(t *testing.T) {
	srv, _ := newTestServer(httpadapter.Deps{})

	rec := post(t, srv, `{"id":99,"species":"Baleia","description":"","latitude":0,"longitude":0}`, "")

	require.Equal(t, http.StatusCreated, rec.Code)
	var got domain.Sighting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), *got.ID)
}

func TestCreateReplayedKeyReturnsOriginal(t *testing.T) {
	pub := &recordingPublisher{}
	srv, metrics := newTestServer(httpadapter.Deps{Publisher: pub})
	body := `{"species":"Baleia","description":"","latitude":1,"longitude":2}`

	first := post(t, srv, body, "abc")
	replay := post(t, srv, body, "abc")

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusOK, replay.Code)
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
	assert.Len(t, pub.published, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SightingsDeduped), 0)
}

func TestCreateValidation(t *testing.T) {
	srv, _ := newTestServer(httpadapter.Deps{})

	tests := []struct {
		name string
		body string
	}{
		{"not json", `species=Baleia`},
		{"empty species", `{"species":"  ","description":"","latitude":0,"longitude":0}`},
		{"latitude out of range", `{"species":"Baleia","description":"","latitude":91,"longitude":0}`},
		{"longitude out of range", `{"species":"Baleia","description":"","latitude":0,"longitude":-181}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, srv, tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCreateEnrichesPlaceName(t *testing.T) {
	srv, _ := newTestServer(httpadapter.Deps{Geocoder: &stubGeocoder{place: "Santos"}})

	rec := post(t, srv, `{"species":"Tartaruga","description":"","latitude":-23.9,"longitude":-46.3,"place_name":"spoofed"}`, "")

	require.Equal(t, http.StatusCreated, rec.Code)
	var got domain.Sighting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Santos", got.PlaceName)
}

func TestCreateSurvivesGeocoderAndPublisherFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	srv, metrics := newTestServer(httpadapter.Deps{
		Geocoder:  &stubGeocoder{err: errors.New("rate limited")},
		Publisher: pub,
	})

	rec := post(t, srv, `{"species":"Golfinho","description":"","latitude":0,"longitude":0}`, "")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "place_name")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SightingsPublished.WithLabelValues("error")), 0)
}

// --- contract: sync gateway against this server ---

func TestGatewayRoundTrip(t *testing.T) {
	srv, _ := newTestServer(httpadapter.Deps{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	gw := remote.NewClient(ts.URL, 5*time.Second, discardLogger(), observability.NewMetricsForTesting())
	ctx := context.Background()

	created, err := gw.Create(ctx, domain.Sighting{Species: "Tartaruga", Description: "vista na praia", Latitude: -23.5, Longitude: -46.6, LocalSeq: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), *created.ID)
	assert.Equal(t, uint64(3), created.LocalSeq)

	_, err = gw.Create(ctx, domain.Sighting{Species: "Baleia", Latitude: -23.8, Longitude: -45.3})
	require.NoError(t, err)

	all, err := gw.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Tartaruga", all[0].Species)
	assert.Equal(t, "Baleia", all[1].Species)
	assert.Equal(t, int64(2), *all[1].ID)
}

func TestGatewayRepeatedCreateOfSameEntryIsDeduped(t *testing.T) {
	srv, metrics := newTestServer(httpadapter.Deps{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	gw := remote.NewClient(ts.URL, 5*time.Second, discardLogger(), nil)
	ctx := context.Background()
	s := domain.Sighting{Species: "Tartaruga", Latitude: -23.5, Longitude: -46.6, LocalSeq: 5}

	first, err := gw.Create(ctx, s)
	require.NoError(t, err)
	again, err := gw.Create(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, *first.ID, *again.ID)

	s.LocalSeq = 6
	other, err := gw.Create(ctx, s)
	require.NoError(t, err)
	assert.NotEqual(t, *first.ID, *other.ID, "identical content from another local entry is a new sighting")

	all, err := gw.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SightingsDeduped), 0)
}

func TestGatewayRejectedCreateIsUnreachable(t *testing.T) {
	srv, _ := newTestServer(httpadapter.Deps{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	gw := remote.NewClient(ts.URL, 5*time.Second, discardLogger(), nil)
	_, err := gw.Create(context.Background(), domain.Sighting{Species: "Baleia", Latitude: 95})

	assert.ErrorIs(t, err, domain.ErrUnreachable)
	assert.Contains(t, err.Error(), "400")
}
