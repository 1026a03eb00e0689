package ephemeris

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/nathan-osman/go-sunrise"
)

// Sunrise solves solar events with the go-sunrise formulas. Events are
// computed per calendar day, so the search covers the day before and the
// two days after the reference instant.
type Sunrise struct{}

// NewSunrise returns a go-sunrise backed solver.
func NewSunrise() Sunrise { return Sunrise{} }

type daySolution struct {
	transit     time.Time
	declination float64 // degrees
}

func solveDay(lonDeg float64, date time.Time) daySolution {
	var (
		d                 = sunrise.MeanSolarNoon(lonDeg, date.Year(), date.Month(), date.Day())
		solarAnomaly      = sunrise.SolarMeanAnomaly(d)
		equationOfCenter  = sunrise.EquationOfCenter(solarAnomaly)
		eclipticLongitude = sunrise.EclipticLongitude(solarAnomaly, equationOfCenter, d)
	)
	return daySolution{
		transit:     sunrise.JulianDayToTime(sunrise.SolarTransit(d, solarAnomaly, eclipticLongitude)),
		declination: sunrise.Declination(eclipticLongitude),
	}
}

// NextTransit returns the first transit strictly after the given instant.
func (Sunrise) NextTransit(obs domain.Observer, after time.Time) (time.Time, error) {
	lon := domain.Degrees(obs.Lon)
	start := after.UTC().AddDate(0, 0, -1)
	for i := 0; i < 4; i++ {
		sol := solveDay(lon, start.AddDate(0, 0, i))
		if sol.transit.Sub(after) > minLead {
			return sol.transit, nil
		}
	}
	return time.Time{}, fmt.Errorf("no transit after %s", after.Format(time.RFC3339))
}

// NextSetting returns the first setting strictly after the given instant.
func (s Sunrise) NextSetting(obs domain.Observer, after time.Time) (time.Time, error) {
	return s.next(obs, after, func(_, evening time.Time) time.Time { return evening })
}

// NextRising returns the first rising strictly after the given instant.
func (s Sunrise) NextRising(obs domain.Observer, after time.Time) (time.Time, error) {
	return s.next(obs, after, func(morning, _ time.Time) time.Time { return morning })
}

func (Sunrise) next(obs domain.Observer, after time.Time, pick func(morning, evening time.Time) time.Time) (time.Time, error) {
	lat, lon := domain.Degrees(obs.Lat), domain.Degrees(obs.Lon)
	elev := domain.Degrees(obs.Horizon + standardAltitude.Rad())

	start := after.UTC().AddDate(0, 0, -1)
	for i := 0; i < 4; i++ {
		date := start.AddDate(0, 0, i)
		morning, evening := sunrise.TimeOfElevation(lat, lon, elev, date.Year(), date.Month(), date.Day())
		if morning.IsZero() || evening.IsZero() {
			return time.Time{}, polarState(lat, lon, elev, date)
		}
		if t := pick(morning, evening); t.Sub(after) > minLead {
			return t, nil
		}
	}
	return time.Time{}, polarState(lat, lon, elev, after)
}

// polarState classifies a day without the requested crossing by comparing
// the Sun's altitude at transit with the horizon.
func polarState(lat, lon, elev float64, date time.Time) error {
	dec := solveDay(lon, date).declination
	if 90-math.Abs(lat-dec) < elev {
		return domain.ErrNeverUp
	}
	return domain.ErrAlwaysUp
}
