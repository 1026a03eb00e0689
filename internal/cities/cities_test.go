package cities

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockGeocoder struct {
	results map[string]domain.GeocodingResult
	err     error
}

func (m mockGeocoder) ForwardGeocode(_ context.Context, name, _ string) (domain.GeocodingResult, error) {
	return m.results[name], m.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestResult_Clock(t *testing.T) {
	tests := []struct {
		name       string
		guess      float64
		hour, mins int
	}{
		{"whole hour", 8, 8, 0},
		{"half hour", 5.5, 5, 30},
		{"just under", 0.999, 1, 0},
		{"quarter", 23.25, 23, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := Result{Guess: tt.guess}.Clock()
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.mins, m)
		})
	}
}

func TestResult_String(t *testing.T) {
	r := Result{Place: Place{Country: "PRT", Name: "Lisbon"}, Guess: 23.4, TimeZone: 0}
	assert.Equal(t, "PRT Lisbon  23:24  0.0", r.String())

	r = Result{Place: Place{Country: "CHN", Name: "Kashgar"}, Guess: 5.9, TimeZone: 8}
	assert.Equal(t, "CHN Kashgar 05:54  8.0", r.String())
}

func TestCheck_NearestPixel(t *testing.T) {
	g := domain.NewGrid(36, 18) // 10 degree cells
	noon := domain.NewRaster(g)
	tz := domain.NewRaster(g)

	// Beijing sits near 116E 40N: lon cell 29 (115E), lat cell 5 (35N).
	noon.Set(5, 29, 16.25)
	tz.Set(5, 29, 8)

	results, err := Check(g, noon, tz, []Place{{Country: "CHN", Name: "Beijing", Lat: 39.9, Lon: 116.4}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 7.75, results[0].Guess, 1e-12)
	assert.Equal(t, 8.0, results[0].TimeZone)
	assert.Equal(t, "CHN Beijing 07:45  8.0", results[0].String())
}

func TestCheck_ShapeMismatch(t *testing.T) {
	g := domain.NewGrid(4, 2)
	other := domain.NewRaster(domain.NewGrid(2, 2))
	_, err := Check(g, other, domain.NewRaster(g), nil)
	require.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	err := Report(&buf, []Result{
		{Place: Place{Country: "GBR", Name: "London"}, Guess: 24, TimeZone: 0},
		{Place: Place{Country: "USA", Name: "Denver"}, Guess: 17, TimeZone: 17},
	})
	require.NoError(t, err)
	assert.Equal(t, "GBR London  24:00  0.0\nUSA Denver  17:00 17.0\n", buf.String())
}

func TestGeocoderLocator(t *testing.T) {
	l := GeocoderLocator{
		Geocoder: mockGeocoder{results: map[string]domain.GeocodingResult{
			"Paris": {Lat: 48.86, Lon: 2.35, FormattedAddress: "Paris, France"},
		}},
		Logger: quietLogger(),
	}

	places, err := l.Locate(context.Background(), []City{{"Paris", "FRA"}, {"Atlantis", "ATL"}})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, Place{Country: "FRA", Name: "Paris", Lat: 48.86, Lon: 2.35}, places[0])
}

func TestGeocoderLocator_NothingFound(t *testing.T) {
	l := GeocoderLocator{Geocoder: mockGeocoder{}, Logger: quietLogger()}
	_, err := l.Locate(context.Background(), DefaultCities)
	require.ErrorIs(t, err, ErrNoCities)
}

func TestGeocoderLocator_Error(t *testing.T) {
	boom := errors.New("boom")
	l := GeocoderLocator{Geocoder: mockGeocoder{err: boom}, Logger: quietLogger()}
	_, err := l.Locate(context.Background(), DefaultCities)
	require.ErrorIs(t, err, boom)
}

func TestShapefilePlaces_MissingFile(t *testing.T) {
	_, err := ShapefilePlaces{Path: filepath.Join(t.TempDir(), "ne_10m_populated_places.zip")}.
		Locate(context.Background(), DefaultCities)
	require.Error(t, err)
}
