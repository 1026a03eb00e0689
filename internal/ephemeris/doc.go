// Package ephemeris provides solar event solvers for the raster stages.
//
// Meeus evaluates apparent solar coordinates and apparent sidereal time and
// solves for the requested local hour angle by Newton iteration. Sunrise
// wraps the lower precision go-sunrise formulas and is mainly useful for
// quick previews. Both honour the observer's horizon dip for rise and set
// events and report polar days and nights as domain.ErrAlwaysUp and
// domain.ErrNeverUp.
package ephemeris
