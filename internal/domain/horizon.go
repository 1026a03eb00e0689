package domain

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadius is the Earth's mean radius in metres used by the horizon model.
const EarthRadius = 6378160.0

// ErrHorizonDomain is returned when an elevation puts the horizon formula
// outside the domain of the model.
var ErrHorizonDomain = errors.New("elevation outside horizon model domain")

// HorizonDip returns the angle in radians by which the visible horizon lies
// below the astronomical horizontal for an observer e metres above the mean
// radius. The result is 0 at sea level and negative above it.
//
// The formula is defined while R/(R+e) lies in [-1, 1], so every elevation in
// (-2R, 0) is rejected. Below-sea-level cells are expected to be clamped upstream.
func HorizonDip(e float64) (float64, error) {
	ratio := EarthRadius / (EarthRadius + e)
	if math.IsNaN(ratio) || ratio < -1 || ratio > 1 {
		return 0, fmt.Errorf("%w: %g m", ErrHorizonDomain, e)
	}
	return -math.Acos(ratio), nil
}
