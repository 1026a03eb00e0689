package timezone

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/noonmap/internal/adapter/naturalearth"
	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrNoOffset is returned when a zone record has no usable offset attribute.
var ErrNoOffset = errors.New("zone has no offset attribute")

// ShapefileSource reads the Natural Earth time-zone shapefile from a zip
// archive. The offset comes from the "zone" attribute.
type ShapefileSource struct {
	Path string
}

func (s ShapefileSource) Zones() ([]domain.Zone, error) {
	records, err := naturalearth.Read(s.Path, "zone", "time_zone")
	if err != nil {
		return nil, err
	}

	zones := make([]domain.Zone, 0, len(records))
	for i, r := range records {
		offset, err := r.Float("zone")
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrNoOffset, i, err)
		}
		name := r.String("time_zone")
		if name == "" {
			name = fmt.Sprintf("UTC%+g", offset)
		}
		geom := r.Geometry
		if p, ok := geom.(orb.Polygon); ok {
			geom = splitRings(p)
		}
		zones = append(zones, domain.Zone{Name: name, Offset: offset, Geometry: geom})
	}
	return zones, nil
}

// splitRings turns a shapefile polygon, which lists every part as a ring
// of one polygon, into a multipolygon. Rings wound like the first ring are
// exteriors (clockwise in a conforming file); the rest are holes of the
// smallest exterior containing them.
func splitRings(p orb.Polygon) orb.Geometry {
	if len(p) <= 1 {
		return p
	}

	var exterior orb.Orientation
	for _, r := range p {
		if exterior = r.Orientation(); exterior != 0 {
			break
		}
	}

	var mp orb.MultiPolygon
	var holes []orb.Ring
	for _, r := range p {
		switch r.Orientation() {
		case 0:
			// degenerate ring, no area
		case exterior:
			mp = append(mp, orb.Polygon{r})
		default:
			holes = append(holes, r)
		}
	}
	for _, h := range holes {
		if k := smallestContaining(mp, h[0]); k >= 0 {
			mp[k] = append(mp[k], h)
		}
	}

	switch len(mp) {
	case 0:
		return p
	case 1:
		return mp[0]
	}
	return mp
}

func smallestContaining(mp orb.MultiPolygon, pt orb.Point) int {
	best, smallest := -1, math.Inf(1)
	for k, poly := range mp {
		if !planar.RingContains(poly[0], pt) {
			continue
		}
		if a := math.Abs(planar.Area(poly[0])); a < smallest {
			best, smallest = k, a
		}
	}
	return best
}
