package domain

import "github.com/paulmach/orb"

// Zone is a time-zone polygon together with its legal UTC offset.
type Zone struct {
	Name     string
	Offset   float64 // hours, may be negative
	Geometry orb.Geometry
}

// NormalizedOffset returns the zone offset folded into [0, 24).
func (z Zone) NormalizedOffset() float64 {
	return NormalizeOffset(z.Offset)
}

// NormalizeOffset adds 24 hours to negative offsets.
func NormalizeOffset(off float64) float64 {
	if off < 0 {
		off += 24
	}
	return off
}
