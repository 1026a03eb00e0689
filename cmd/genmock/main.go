// Command genmock writes a small synthetic dataset for demos and tests: a
// GLOBE-style tile archive in the real 4 x 4 arrangement with shrunken
// tiles, the elevation artifacts built from it, and GeoJSON time-zone
// polygons. Point DATA_DIR at the output with TZ_SOURCE=geojson and the
// pipeline runs end to end without the real datasets.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -divisor 100 -scale 2
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/noonmap/internal/adapter/store"
	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/couchcryptid/noonmap/internal/elevation"
	"github.com/couchcryptid/noonmap/internal/timezone"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/zip"
	"github.com/paulmach/orb"
)

var baseDate = time.Date(2019, time.March, 20, 12, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory")
	divisor := flag.Int("divisor", 100, "divide every GLOBE tile dimension by this")
	scale := flag.Int("scale", 2, "downsampling factor for the elevation artifacts")
	zonesName := flag.String("zones", "zones.geojson", "file name of the time-zone polygons")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	// Set a fixed clock for reproducible manifest timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(baseDate))

	layout, err := elevation.GlobeLayout.Shrink(*divisor)
	if err != nil {
		return err
	}

	archive := filepath.Join(*out, "all10g.zip")
	if err := writeArchive(archive, layout); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	fmt.Printf("wrote %s (%d x %d samples)\n", archive, layout.Height(), layout.Width())

	n, err := writeElevation(*out, archive, layout, *scale)
	if err != nil {
		return fmt.Errorf("write elevation: %w", err)
	}
	fmt.Printf("wrote %s, %s, %s (%d cells)\n", domain.LonFile, domain.LatFile, domain.ElevationFile, n)

	zones := mockZones()
	data, err := timezone.ZonesToGeoJSON(zones)
	if err != nil {
		return err
	}
	zonesPath := filepath.Join(*out, *zonesName)
	if err := os.WriteFile(zonesPath, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d zones)\n", zonesPath, len(zones))
	return nil
}

// terrain is a smooth synthetic relief in metres: two continents, a
// plateau and open ocean below sea level.
func terrain(latDeg, lonDeg float64) int16 {
	lat, lon := latDeg*math.Pi/180, lonDeg*math.Pi/180
	h := 2500*math.Cos(lat)*math.Sin(2*lon) + 1500*math.Cos(3*lat)
	h += 4000 * math.Exp(-((latDeg-32)*(latDeg-32)+(lonDeg-88)*(lonDeg-88))/200)
	return int16(math.Round(h))
}

func writeArchive(path string, layout elevation.Layout) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	height, width := layout.Height(), layout.Width()
	y0 := 0
	for ty, names := range layout.Tiles {
		x0 := 0
		for tx, name := range names {
			h, w := layout.RowHeights[ty], layout.ColWidths[tx]
			samples := make([]int16, 0, h*w)
			for y := y0; y < y0+h; y++ {
				lat := 90 - 180*(float64(y)+0.5)/float64(height)
				for x := x0; x < x0+w; x++ {
					lon := 360*(float64(x)+0.5)/float64(width) - 180
					samples = append(samples, terrain(lat, lon))
				}
			}
			tw, err := zw.Create("all10/" + name)
			if err != nil {
				return err
			}
			if err := elevation.WriteTile(tw, samples); err != nil {
				return err
			}
			x0 += w
		}
		y0 += layout.RowHeights[ty]
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func writeElevation(dir, archive string, layout elevation.Layout, scale int) (int, error) {
	ds := elevation.Dataset{
		Archive: archive,
		Layout:  layout,
		Scale:   scale,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	g, elev, err := ds.Build(context.Background())
	if err != nil {
		return 0, err
	}

	st, err := store.New(dir)
	if err != nil {
		return 0, err
	}
	artifacts := []struct {
		name   string
		values []float64
		shape  []int
	}{
		{domain.LonFile, g.Lon, []int{len(g.Lon)}},
		{domain.LatFile, g.Lat, []int{len(g.Lat)}},
		{domain.ElevationFile, elev.Data, []int{elev.NLat, elev.NLon}},
	}
	for _, a := range artifacts {
		digest, err := st.WriteFloats(a.name, a.values)
		if err != nil {
			return 0, err
		}
		if _, err := st.Record(a.name, a.shape, digest); err != nil {
			return 0, err
		}
	}
	return g.Cells(), nil
}

// mockZones returns 25 nautical meridian bands followed by an override that
// puts a block of western Europe one hour ahead of its band, as Spain is.
// Later zones win where they overlap.
func mockZones() []domain.Zone {
	zones := make([]domain.Zone, 0, 26)
	for k := -12; k <= 12; k++ {
		west := math.Max(-180, 15*float64(k)-7.5)
		east := math.Min(180, 15*float64(k)+7.5)
		zones = append(zones, domain.Zone{
			Name:     fmt.Sprintf("UTC%+d", k),
			Offset:   float64(k),
			Geometry: box(west, -90, east, 90),
		})
	}
	zones = append(zones, domain.Zone{Name: "Europe/Madrid", Offset: 1, Geometry: box(-10, 36, 3.5, 44)})
	return zones
}

func box(west, south, east, north float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{west, south}, {east, south}, {east, north}, {west, north}, {west, south},
	}}
}
