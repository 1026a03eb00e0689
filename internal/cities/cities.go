// Package cities checks the computed rasters against a handful of well
// known cities: for each one it guesses the civil time zone implied by
// the local solar noon and reports it beside the legal offset.
package cities

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/couchcryptid/noonmap/internal/domain"
)

// ErrNoCities is returned when none of the requested cities could be located.
var ErrNoCities = errors.New("no cities located")

// City is a place of interest identified by name and ISO 3166 alpha-3 country.
type City struct {
	Name    string
	Country string
}

// DefaultCities is the list of cities reported by the check.
var DefaultCities = []City{
	{Name: "Beijing", Country: "CHN"},
	{Name: "Berlin", Country: "DEU"},
	{Name: "Córdoba", Country: "ESP"},
	{Name: "Kashgar", Country: "CHN"},
	{Name: "Lisbon", Country: "PRT"},
	{Name: "London", Country: "GBR"},
	{Name: "Paris", Country: "FRA"},
	{Name: "Denver", Country: "USA"},
	{Name: "Warsaw", Country: "POL"},
}

// Place is a located city.
type Place struct {
	Country string
	Name    string // display name
	Lat     float64
	Lon     float64 // degrees
}

// Locator resolves cities to coordinates.
type Locator interface {
	Locate(ctx context.Context, cities []City) ([]Place, error)
}

// Result is one row of the city check report.
type Result struct {
	Place
	Guess    float64 // hours, 24 minus the noon offset
	TimeZone float64 // hours
}

// Clock splits the guess into hours and minutes. Minutes that round up to
// 60 are carried into the hour.
func (r Result) Clock() (hour, minute int) {
	hour = int(math.Floor(r.Guess))
	minute = int(math.Round(60 * (r.Guess - math.Floor(r.Guess))))
	if minute == 60 {
		hour, minute = hour+1, 0
	}
	return hour, minute
}

func (r Result) String() string {
	hour, minute := r.Clock()
	return fmt.Sprintf("%-3s %-7s %02d:%02d %4.1f", r.Country, r.Name, hour, minute, r.TimeZone)
}

// Check looks up the nearest pixel of each place in the noon and time-zone
// rasters.
func Check(g domain.Grid, noon, tz domain.Raster, places []Place) ([]Result, error) {
	if err := noon.CheckShape(g); err != nil {
		return nil, fmt.Errorf("noon raster: %w", err)
	}
	if err := tz.CheckShape(g); err != nil {
		return nil, fmt.Errorf("time zone raster: %w", err)
	}

	results := make([]Result, 0, len(places))
	for _, p := range places {
		ix := g.Lon.Nearest(p.Lon * math.Pi / 180)
		iy := g.Lat.Nearest(p.Lat * math.Pi / 180)
		results = append(results, Result{
			Place:    p,
			Guess:    24 - noon.At(iy, ix),
			TimeZone: tz.At(iy, ix),
		})
	}
	return results, nil
}

// Report writes one line per result.
func Report(w io.Writer, results []Result) error {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
