package timezone

import (
	"fmt"
	"os"

	"github.com/couchcryptid/noonmap/internal/domain"
	orbgeojson "github.com/paulmach/orb/geojson"
)

// GeoJSONSource reads zones from a GeoJSON FeatureCollection whose features
// carry the offset in a numeric "zone" property.
type GeoJSONSource struct {
	Path string
}

func (s GeoJSONSource) Zones() ([]domain.Zone, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read zones: %w", err)
	}
	fc, err := orbgeojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode zones %s: %w", s.Path, err)
	}

	zones := make([]domain.Zone, 0, len(fc.Features))
	for i, f := range fc.Features {
		offset, ok := f.Properties["zone"].(float64)
		if !ok {
			return nil, fmt.Errorf("%w: feature %d", ErrNoOffset, i)
		}
		name := f.Properties.MustString("time_zone", fmt.Sprintf("UTC%+g", offset))
		zones = append(zones, domain.Zone{Name: name, Offset: offset, Geometry: f.Geometry})
	}
	return zones, nil
}

// ZonesToGeoJSON encodes zones as a FeatureCollection readable by
// GeoJSONSource.
func ZonesToGeoJSON(zones []domain.Zone) ([]byte, error) {
	fc := orbgeojson.NewFeatureCollection()
	for _, z := range zones {
		f := orbgeojson.NewFeature(z.Geometry)
		f.Properties["zone"] = z.Offset
		f.Properties["time_zone"] = z.Name
		fc.Append(f)
	}
	return fc.MarshalJSON()
}
