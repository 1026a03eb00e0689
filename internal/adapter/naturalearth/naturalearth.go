// Package naturalearth reads zipped Natural Earth shapefiles into orb
// geometries with typed attribute access.
package naturalearth

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/everystreet/go-shapefile"
	"github.com/paulmach/orb"
	orbgeojson "github.com/paulmach/orb/geojson"
)

var floatType = reflect.TypeOf(float64(0))

// Record is one shapefile feature.
type Record struct {
	Geometry   orb.Geometry
	Attributes map[string]any
}

// Float returns a numeric attribute.
func (r Record) Float(name string) (float64, error) {
	v, ok := r.Attributes[name]
	if !ok {
		return math.NaN(), fmt.Errorf("attribute %s missing", name)
	}
	return getFloat(v)
}

// String returns an attribute formatted as text, or "" when absent.
func (r Record) String(name string) string {
	v, ok := r.Attributes[name]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

// Read scans a zipped shapefile and returns the records in file order,
// keeping only the named attributes.
func Read(path string, fields ...string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat shapefile: %w", err)
	}

	// An empty filename skips the member name check inside the archive.
	scanner, err := shapefile.NewZipScanner(file, stat.Size(), "", shapefile.PointPrecision(6))
	if err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	if err := scanner.Scan(); err != nil {
		return nil, fmt.Errorf("scan shapefile %s: %w", path, err)
	}

	info, err := scanner.Info()
	if err != nil {
		return nil, fmt.Errorf("shapefile info: %w", err)
	}

	records := make([]Record, 0, info.NumRecords)
	for {
		record := scanner.Record()
		if record == nil {
			break
		}

		geom, err := featureGeometry(record.Shape.GeoJSONFeature())
		if err != nil {
			return nil, fmt.Errorf("record %d geometry: %w", len(records), err)
		}
		attrs := make(map[string]any, len(fields))
		for _, name := range fields {
			if f, ok := record.Attributes.Field(name); ok {
				attrs[name] = f.Value()
			}
		}
		records = append(records, Record{Geometry: geom, Attributes: attrs})
	}

	// Err() returns the first error encountered during calls to Record()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan shapefile %s: %w", path, err)
	}
	return records, nil
}

// featureGeometry converts a shapefile feature to orb via its GeoJSON form.
func featureGeometry(feature json.Marshaler) (orb.Geometry, error) {
	data, err := feature.MarshalJSON()
	if err != nil {
		return nil, err
	}
	f, err := orbgeojson.UnmarshalFeature(data)
	if err != nil {
		return nil, err
	}
	return f.Geometry, nil
}

func getFloat(unk interface{}) (float64, error) {
	v := reflect.ValueOf(unk)
	v = reflect.Indirect(v)
	if !v.IsValid() || !v.Type().ConvertibleTo(floatType) {
		return math.NaN(), fmt.Errorf("cannot convert %v to float64", unk)
	}
	return v.Convert(floatType).Float(), nil
}
