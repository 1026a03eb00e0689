package timezone

import (
	"bytes"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/paulmach/orb"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}
}

func testZones() []domain.Zone {
	return []domain.Zone{
		{Name: "west", Offset: -5, Geometry: box(-120, -60, -30, 60)},
		{Name: "east", Offset: 3, Geometry: box(0, -60, 90, 60)},
		// Overlaps the east half of "west"; loaded later so it wins there.
		{Name: "overlap", Offset: -3, Geometry: box(-60, -10, 10, 10)},
		{Name: "islands", Offset: 12, Geometry: orb.MultiPolygon{box(170, -50, 175, -40), box(176, -45, 179, -35)}},
	}
}

// naiveClassify paints zones in load order, the last one overwriting.
func naiveClassify(zones []domain.Zone, p orb.Point) (float64, bool) {
	var off float64
	var ok bool
	for _, z := range zones {
		if Contains(z.Geometry, p) {
			off, ok = z.NormalizedOffset(), true
		}
	}
	return off, ok
}

func TestIndex_Classify(t *testing.T) {
	idx := NewIndex(testZones())
	require.Equal(t, 4, idx.Len())

	tests := []struct {
		name   string
		p      orb.Point
		want   float64
		wantOK bool
	}{
		{name: "west only", p: orb.Point{-100, 20}, want: 19, wantOK: true},
		{name: "east only", p: orb.Point{45, 20}, want: 3, wantOK: true},
		{name: "overlap wins over west", p: orb.Point{-45, 0}, want: 21, wantOK: true},
		{name: "overlap wins over east", p: orb.Point{5, 0}, want: 21, wantOK: true},
		{name: "second island", p: orb.Point{177, -40}, want: 12, wantOK: true},
		{name: "ocean", p: orb.Point{150, 0}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Classify(tt.p)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndex_MatchesNaiveScan(t *testing.T) {
	zones := testZones()
	idx := NewIndex(zones)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 5000; i++ {
		p := orb.Point{rng.Float64()*360 - 180, rng.Float64()*180 - 90}
		wantOff, wantOK := naiveClassify(zones, p)
		gotOff, gotOK := idx.Classify(p)
		require.Equal(t, wantOK, gotOK, "point %v", p)
		require.Equal(t, wantOff, gotOff, "point %v", p)
	}
}

func TestIndex_Deterministic(t *testing.T) {
	zones := testZones()
	a, b := NewIndex(zones), NewIndex(zones)
	for lon := -179.5; lon < 180; lon += 5 {
		for lat := -89.5; lat < 90; lat += 5 {
			p := orb.Point{lon, lat}
			offA, okA := a.Classify(p)
			offB, okB := b.Classify(p)
			assert.Equal(t, okA, okB)
			assert.Equal(t, offA, offB)
		}
	}
}

// cw returns the ring of box(...) wound clockwise, as shapefile exteriors are.
func cw(minLon, minLat, maxLon, maxLat float64) orb.Ring {
	r := box(minLon, minLat, maxLon, maxLat)[0]
	r.Reverse()
	return r
}

func TestSplitRings(t *testing.T) {
	outer := cw(0, 0, 10, 10)
	hole := box(2, 2, 4, 4)[0]
	island := cw(20, 0, 30, 10)
	require.Equal(t, orb.CW, outer.Orientation())
	require.Equal(t, orb.CCW, hole.Orientation())

	g := splitRings(orb.Polygon{outer, hole, island})
	mp, ok := g.(orb.MultiPolygon)
	require.True(t, ok, "got %T", g)
	require.Len(t, mp, 2)
	assert.Len(t, mp[0], 2, "first part keeps its hole")
	assert.Len(t, mp[1], 1)

	assert.True(t, Contains(g, orb.Point{1, 1}))
	assert.False(t, Contains(g, orb.Point{3, 3}))
	assert.True(t, Contains(g, orb.Point{25, 5}))

	single := splitRings(orb.Polygon{outer, hole})
	_, isPoly := single.(orb.Polygon)
	assert.True(t, isPoly)
}

func TestSplitRings_EdgeSharingParts(t *testing.T) {
	g := splitRings(orb.Polygon{cw(0, 0, 10, 10), cw(10, 0, 20, 10)})
	mp, ok := g.(orb.MultiPolygon)
	require.True(t, ok, "got %T", g)
	require.Len(t, mp, 2)
	assert.Len(t, mp[0], 1)
	assert.Len(t, mp[1], 1)

	idx := NewIndex([]domain.Zone{{Name: "shared", Offset: 3, Geometry: g}})
	for _, p := range []orb.Point{{5, 5}, {15, 5}} {
		off, ok := idx.Classify(p)
		assert.True(t, ok, "point %v", p)
		assert.Equal(t, 3.0, off, "point %v", p)
	}
}

func TestSplitRings_HoleInNestedIsland(t *testing.T) {
	// A lake inside an island inside a lagoon: the lake belongs to the island.
	outer := cw(0, 0, 30, 30)
	lagoon := box(5, 5, 25, 25)[0]
	island := cw(10, 10, 20, 20)
	lake := box(14, 14, 16, 16)[0]

	g := splitRings(orb.Polygon{outer, lagoon, island, lake})
	mp, ok := g.(orb.MultiPolygon)
	require.True(t, ok, "got %T", g)
	require.Len(t, mp, 2)
	assert.Len(t, mp[0], 2)
	assert.Len(t, mp[1], 2)

	assert.True(t, Contains(g, orb.Point{2, 2}))
	assert.False(t, Contains(g, orb.Point{7, 7}))
	assert.True(t, Contains(g, orb.Point{12, 12}))
	assert.False(t, Contains(g, orb.Point{15, 15}))
}

func TestGeoJSONSource_RoundTrip(t *testing.T) {
	zones := testZones()
	data, err := ZonesToGeoJSON(zones)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "zones.geojson")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := GeoJSONSource{Path: path}.Zones()
	require.NoError(t, err)
	require.Len(t, got, len(zones))
	for i := range zones {
		assert.Equal(t, zones[i].Name, got[i].Name)
		assert.Equal(t, zones[i].Offset, got[i].Offset)
	}

	idx := NewIndex(got)
	off, ok := idx.Classify(orb.Point{-45, 0})
	require.True(t, ok)
	assert.Equal(t, 21.0, off)
}

func TestGeoJSONSource_MissingOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.geojson")
	body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"x"},` +
		`"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := GeoJSONSource{Path: path}.Zones()
	require.ErrorIs(t, err, ErrNoOffset)
}

func TestShapefileSource_MissingFile(t *testing.T) {
	_, err := ShapefileSource{Path: filepath.Join(t.TempDir(), "missing.zip")}.Zones()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOffsetAt(t *testing.T) {
	equinox := domain.DefaultReference

	off, err := OffsetAt("America/New_York", equinox)
	require.NoError(t, err)
	assert.Equal(t, 20.0, off, "EDT is UTC-4 on the equinox")

	off, err = OffsetAt("Asia/Kolkata", equinox)
	require.NoError(t, err)
	assert.Equal(t, 5.5, off)

	off, err = OffsetAt("Europe/London", time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0.0, off)

	_, err = OffsetAt("Not/AZone", equinox)
	require.Error(t, err)
}

func TestTZFClassifier(t *testing.T) {
	c, err := NewTZFClassifier(domain.DefaultReference, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	off, ok := c.Classify(orb.Point{116.4074, 39.9042}) // Beijing
	require.True(t, ok)
	assert.Equal(t, 8.0, off)

	off, ok = c.Classify(orb.Point{-104.9903, 39.7392}) // Denver, MDT
	require.True(t, ok)
	assert.Equal(t, 18.0, off)

	// Cached path returns the same answer.
	off, ok = c.Classify(orb.Point{116.4074, 39.9042})
	require.True(t, ok)
	assert.Equal(t, 8.0, off)
}

func TestTZFClassifier_UnknownZoneLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	c := &TZFClassifier{
		ref:     domain.DefaultReference,
		offsets: xsync.NewMapOf[string, float64](),
		failed:  xsync.NewMapOf[string, struct{}](),
		logger:  slog.New(slog.NewTextHandler(&buf, nil)),
	}

	for range 3 {
		off, ok := c.offset("Mars/Olympus_Mons")
		assert.False(t, ok)
		assert.Zero(t, off)
	}
	assert.Contains(t, buf.String(), "Mars/Olympus_Mons")
	assert.Equal(t, 1, strings.Count(buf.String(), "load tz zone offset failed"))

	off, ok := c.offset("Asia/Tokyo")
	require.True(t, ok)
	assert.Equal(t, 9.0, off)
}
