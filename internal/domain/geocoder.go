package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves place names to coordinates.
type Geocoder interface {
	// ForwardGeocode converts a place name and ISO 3166 alpha-3 country code
	// to coordinates. An empty result with a nil error means no match.
	ForwardGeocode(ctx context.Context, name, country string) (GeocodingResult, error)
}
