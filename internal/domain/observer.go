package domain

import (
	"errors"
	"time"
)

var (
	// ErrAlwaysUp is returned by rise/set solvers when the Sun never
	// crosses the horizon because it stays above it.
	ErrAlwaysUp = errors.New("sun is always above the horizon")

	// ErrNeverUp is returned by rise/set solvers when the Sun never
	// crosses the horizon because it stays below it.
	ErrNeverUp = errors.New("sun is always below the horizon")
)

// NoEvent is stored in rise/set rasters for cells without the event.
const NoEvent = -1.0

// DefaultReference is the default reference instant: 12:00 UTC on the
// March 2019 equinox day.
var DefaultReference = time.Date(2019, time.March, 20, 12, 0, 0, 0, time.UTC)

// Observer is the per-cell computation context handed to a solver.
type Observer struct {
	Lat       float64 // radians, north positive
	Lon       float64 // radians, east positive
	Elevation float64 // metres
	Horizon   float64 // radians, negative below the horizontal
}

// NewObserver builds an observer for a cell, deriving the horizon dip from
// its elevation.
func NewObserver(lat, lon, elevation float64) (Observer, error) {
	dip, err := HorizonDip(elevation)
	if err != nil {
		return Observer{}, err
	}
	return Observer{Lat: lat, Lon: lon, Elevation: elevation, Horizon: dip}, nil
}

// TransitSolver finds meridian transits of the Sun.
type TransitSolver interface {
	// NextTransit returns the first transit strictly after the given instant.
	NextTransit(obs Observer, after time.Time) (time.Time, error)
}

// RiseSetSolver finds the Sun crossing the observer's horizon.
type RiseSetSolver interface {
	// NextRising returns the first rising strictly after the given instant,
	// or ErrAlwaysUp / ErrNeverUp.
	NextRising(obs Observer, after time.Time) (time.Time, error)

	// NextSetting returns the first setting strictly after the given
	// instant, or ErrAlwaysUp / ErrNeverUp.
	NextSetting(obs Observer, after time.Time) (time.Time, error)
}

// Ephemeris solves every event the pipeline needs.
type Ephemeris interface {
	TransitSolver
	RiseSetSolver
}

// HoursSince returns the offset from ref to t in hours.
func HoursSince(ref, t time.Time) float64 {
	return t.Sub(ref).Seconds() / 3600
}

// IsPolar reports whether err marks an always-up or always-down cell.
func IsPolar(err error) bool {
	return errors.Is(err, ErrAlwaysUp) || errors.Is(err, ErrNeverUp)
}
