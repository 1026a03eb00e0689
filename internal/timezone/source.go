// Package timezone loads time-zone polygons and classifies points by the
// legal UTC offset in force there.
package timezone

import (
	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/paulmach/orb"
)

// Source loads zone polygons in a stable order. Later zones take precedence
// where polygons overlap.
type Source interface {
	Zones() ([]domain.Zone, error)
}

// Classifier returns the normalized offset in hours [0, 24) for a point
// given as (lon, lat) degrees, or false when no zone covers it.
type Classifier interface {
	Classify(p orb.Point) (float64, bool)
}
