package ephemeris

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/mooncaker816/learnmeeus/v3/julian"
	"github.com/mooncaker816/learnmeeus/v3/sidereal"
	"github.com/mooncaker816/learnmeeus/v3/solar"
	"github.com/soniakeys/unit"
)

const (
	secondsPerDay = 86400.0

	maxIterations = 12
	tolerance     = 0.01 // seconds

	// Events closer than this to the search start count as the current
	// event, not the next one.
	minLead = time.Second
)

// standardAltitude corrects for refraction plus the solar semi-diameter,
// applied below the observer's horizon.
var standardAltitude = unit.AngleFromDeg(-0.8333)

// DeltaT is TT - UT in seconds for the epoch the rasters are computed for.
const DeltaT = 69.2

// Meeus solves solar events from apparent coordinates and sidereal time.
type Meeus struct{}

// NewMeeus returns a Meeus solver.
func NewMeeus() Meeus { return Meeus{} }

// sun holds the apparent position of the Sun and the hour angle it has
// from the observer's meridian.
type sun struct {
	hourAngle   float64
	declination float64
}

func sunAt(obs domain.Observer, t time.Time) sun {
	jd := julian.TimeToJD(t)
	ra, dec := solar.ApparentEquatorial(jd + DeltaT/secondsPerDay)
	gst := sidereal.Apparent(jd)
	return sun{
		hourAngle:   gst.Rad() + obs.Lon - ra.Rad(),
		declination: dec.Rad(),
	}
}

// NextTransit returns the first upper meridian transit strictly after the
// given instant.
func (Meeus) NextTransit(obs domain.Observer, after time.Time) (time.Time, error) {
	return solveHourAngle(obs, after, func(sun) (float64, error) { return 0, nil })
}

// NextSetting returns the first setting strictly after the given instant.
func (Meeus) NextSetting(obs domain.Observer, after time.Time) (time.Time, error) {
	return solveHourAngle(obs, after, func(s sun) (float64, error) {
		return eventHourAngle(obs, s.declination)
	})
}

// NextRising returns the first rising strictly after the given instant.
func (Meeus) NextRising(obs domain.Observer, after time.Time) (time.Time, error) {
	return solveHourAngle(obs, after, func(s sun) (float64, error) {
		h0, err := eventHourAngle(obs, s.declination)
		return -h0, err
	})
}

// eventHourAngle returns the hour angle at which the Sun's centre reaches
// the observer's horizon, or a polar error when it never does.
func eventHourAngle(obs domain.Observer, dec float64) (float64, error) {
	h0 := obs.Horizon + standardAltitude.Rad()
	c := (math.Sin(h0) - math.Sin(obs.Lat)*math.Sin(dec)) / (math.Cos(obs.Lat) * math.Cos(dec))
	switch {
	case c < -1:
		return 0, domain.ErrAlwaysUp
	case c > 1:
		return 0, domain.ErrNeverUp
	}
	return math.Acos(c), nil
}

// solveHourAngle finds the first instant after the given one at which the
// Sun's hour angle equals target. The hour angle advances by about 2π per
// day so the correction in seconds is its residual scaled by one day.
func solveHourAngle(obs domain.Observer, after time.Time, target func(sun) (float64, error)) (time.Time, error) {
	s := sunAt(obs, after)
	want, err := target(s)
	if err != nil {
		return time.Time{}, err
	}
	t := after.Add(seconds(wrap2Pi(want-s.hourAngle) / (2 * math.Pi) * secondsPerDay))

	for day := 0; day < 2; day++ {
		t, err = refine(obs, t, target)
		if err != nil {
			return time.Time{}, err
		}
		if t.Sub(after) > minLead {
			return t, nil
		}
		t = t.Add(seconds(secondsPerDay))
	}
	return time.Time{}, fmt.Errorf("no solar event after %s", after.Format(time.RFC3339))
}

func refine(obs domain.Observer, t time.Time, target func(sun) (float64, error)) (time.Time, error) {
	for i := 0; i < maxIterations; i++ {
		s := sunAt(obs, t)
		want, err := target(s)
		if err != nil {
			return time.Time{}, err
		}
		step := wrapPi(want-s.hourAngle) / (2 * math.Pi) * secondsPerDay
		t = t.Add(seconds(step))
		if math.Abs(step) < tolerance {
			break
		}
	}
	return t, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// wrapPi folds an angle into [-π, π].
func wrapPi(a float64) float64 { return math.Remainder(a, 2*math.Pi) }

// wrap2Pi folds an angle into [0, 2π).
func wrap2Pi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
