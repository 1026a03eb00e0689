package domain

import "time"

// Binary artifact names, relative to the data directory.
const (
	LonFile          = "lon.bin"
	LatFile          = "lat.bin"
	ElevationFile    = "elev.bin"
	NoonFile         = "noonDiff.bin"
	SunsetFile       = "sunsetDiff.bin"
	SunriseFile      = "sunriseDiff.bin"
	TimeZoneFile     = "timeZone.bin"
	TimeZoneDiffFile = "timeZoneDiff.bin"
)

// ArtifactEvent describes an artifact written by the pipeline. It is the
// payload published to the artifact topic.
type ArtifactEvent struct {
	Name      string    `json:"name"`
	Stage     string    `json:"stage"`
	NLat      int       `json:"n_lat"`
	NLon      int       `json:"n_lon"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Mean      float64   `json:"mean"`
	SHA256    string    `json:"sha256"`
	CreatedAt time.Time `json:"created_at"`
}
