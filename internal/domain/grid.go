package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrShapeMismatch is returned when a raster does not match its axes.
	ErrShapeMismatch = errors.New("raster shape does not match axes")

	// ErrBadScale is returned when a downsampling factor does not divide
	// the source raster dimensions.
	ErrBadScale = errors.New("scale does not divide raster dimensions")
)

// Axis is an ordered sequence of angles in radians.
type Axis []float64

// LonAxis returns n longitude cell centres spanning [-π, π).
func LonAxis(n int) Axis {
	a := make(Axis, n)
	for i := range a {
		a[i] = radians(360*(float64(i)+0.5)/float64(n) - 180)
	}
	return a
}

// LatAxis returns n latitude cell centres, northernmost first.
func LatAxis(n int) Axis {
	a := make(Axis, n)
	for i := 0; i < n; i++ {
		a[n-1-i] = radians(180*(float64(i)+0.5)/float64(n) - 90)
	}
	return a
}

// Nearest returns the index of the axis value closest to v.
func (a Axis) Nearest(v float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, x := range a {
		if d := math.Abs(x - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Grid pairs the longitude and latitude axes that every raster is aligned to.
type Grid struct {
	Lon Axis
	Lat Axis
}

// NewGrid builds the standard global grid with nLon by nLat cells.
func NewGrid(nLon, nLat int) Grid {
	return Grid{Lon: LonAxis(nLon), Lat: LatAxis(nLat)}
}

// Cells returns the number of cells in the grid.
func (g Grid) Cells() int { return len(g.Lon) * len(g.Lat) }

// Raster is a 2D grid of values indexed [lat][lon], stored row-major.
type Raster struct {
	NLat int
	NLon int
	Data []float64
}

// NewRaster allocates a zeroed raster shaped like g.
func NewRaster(g Grid) Raster {
	return Raster{NLat: len(g.Lat), NLon: len(g.Lon), Data: make([]float64, g.Cells())}
}

// RasterFromData wraps data as a raster shaped like g.
func RasterFromData(g Grid, data []float64) (Raster, error) {
	if len(data) != g.Cells() {
		return Raster{}, fmt.Errorf("%w: %d values for %d x %d grid",
			ErrShapeMismatch, len(data), len(g.Lat), len(g.Lon))
	}
	return Raster{NLat: len(g.Lat), NLon: len(g.Lon), Data: data}, nil
}

// At returns the value at (iy, ix).
func (r Raster) At(iy, ix int) float64 { return r.Data[iy*r.NLon+ix] }

// Set stores v at (iy, ix).
func (r Raster) Set(iy, ix int, v float64) { r.Data[iy*r.NLon+ix] = v }

// Row returns the slice backing row iy.
func (r Raster) Row(iy int) []float64 { return r.Data[iy*r.NLon : (iy+1)*r.NLon] }

// Matches reports whether r is shaped like g.
func (r Raster) Matches(g Grid) bool {
	return r.NLat == len(g.Lat) && r.NLon == len(g.Lon) && len(r.Data) == r.NLat*r.NLon
}

// CheckShape returns ErrShapeMismatch when r is not shaped like g.
func (r Raster) CheckShape(g Grid) error {
	if !r.Matches(g) {
		return fmt.Errorf("%w: raster %d x %d, axes %d x %d",
			ErrShapeMismatch, r.NLat, r.NLon, len(g.Lat), len(g.Lon))
	}
	return nil
}

// Mean returns the arithmetic mean of all cells.
func (r Raster) Mean() float64 {
	if len(r.Data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.Data {
		sum += v
	}
	return sum / float64(len(r.Data))
}

// Bounds returns the smallest and largest cell values.
func (r Raster) Bounds() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range r.Data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
