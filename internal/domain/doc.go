// Package domain models the solar noon versus civil time rasters.
//
// # Grid
//
// The working grid is a global equirectangular lattice of cell centres.
// Longitudes run west to east over [-π, π); latitudes are stored north first,
// so index 0 of the latitude axis is the northernmost band:
//
//	lon[i]       = rad(360 * (i + 0.5) / nLon - 180)
//	lat[n-1-i]   = rad(180 * (i + 0.5) / nLat - 90)
//
// Rasters are row-major: the value for (iy, ix) lives at Data[iy*NLon+ix].
// A raster's shape always matches the axes it was built from; anything else is
// rejected with [ErrShapeMismatch].
//
// # Units
//
//	elevation           metres above sea level, clamped at 0
//	noon/sunset/sunrise hours from the reference instant to the next event
//	time zone           legal UTC offset in hours, normalized into [0, 24)
//	difference          hours on a 24 hour circle, in [-12, +12]
//
// Event offsets are stored exactly as computed. A cell whose transit lands a
// fraction past 24 hours keeps that value; consumers must tolerate it.
//
// # Horizon
//
// An observer at elevation e sees the horizon below the astronomical
// horizontal by acos(R / (R + e)), R being the Earth's mean radius. See
// [HorizonDip].
//
// # Polar cells
//
// Rise and set events do not exist where the Sun stays above (or below) the
// horizon all day. Every rise/set raster stores [NoEvent] for those cells.
// The transit raster has no such case.
//
// # Unclassified cells
//
// A cell inside no time-zone polygon keeps a zero offset, the same value as
// UTC. The number of such cells is logged by the time-zone stage.
package domain
