package cities

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/noonmap/internal/adapter/naturalearth"
	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/paulmach/orb"
)

// ShapefilePlaces locates cities in the Natural Earth populated places
// shapefile. Records are kept in file order; every record matching a
// requested (name, country) pair is returned.
type ShapefilePlaces struct {
	Path string
}

func (s ShapefilePlaces) Locate(_ context.Context, cities []City) ([]Place, error) {
	records, err := naturalearth.Read(s.Path, "NAME", "ADM0_A3", "name_en")
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]string, len(cities))
	for _, c := range cities {
		wanted[c.Name] = c.Country
	}

	var places []Place
	for _, rec := range records {
		name := rec.String("NAME")
		country, ok := wanted[name]
		if !ok || rec.String("ADM0_A3") != country {
			continue
		}
		pt, ok := rec.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("place %s: geometry %T is not a point", name, rec.Geometry)
		}
		display := rec.String("name_en")
		if display == "" {
			display = name
		}
		places = append(places, Place{Country: country, Name: display, Lon: pt.Lon(), Lat: pt.Lat()})
	}
	if len(places) == 0 {
		return nil, ErrNoCities
	}
	return places, nil
}

// GeocoderLocator locates cities through a forward geocoder. Cities the
// geocoder cannot resolve are logged and skipped.
type GeocoderLocator struct {
	Geocoder domain.Geocoder
	Logger   *slog.Logger
}

func (l GeocoderLocator) Locate(ctx context.Context, cities []City) ([]Place, error) {
	places := make([]Place, 0, len(cities))
	for _, c := range cities {
		res, err := l.Geocoder.ForwardGeocode(ctx, c.Name, c.Country)
		if err != nil {
			return nil, fmt.Errorf("geocode %s: %w", c.Name, err)
		}
		if res.FormattedAddress == "" {
			l.Logger.Warn("city not found", "name", c.Name, "country", c.Country)
			continue
		}
		places = append(places, Place{Country: c.Country, Name: c.Name, Lat: res.Lat, Lon: res.Lon})
	}
	if len(places) == 0 {
		return nil, ErrNoCities
	}
	return places, nil
}
