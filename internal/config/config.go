package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Ephemeris backends.
const (
	EphemerisMeeus   = "meeus"
	EphemerisSunrise = "sunrise"
)

// Time-zone sources.
const (
	TZSourceShapefile = "shapefile"
	TZSourceGeoJSON   = "geojson"
	TZSourceTZF       = "tzf"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	DataDir       string
	GlobeArchive  string
	GlobeTileDir  string
	Scale         int
	ReferenceTime time.Time
	Ephemeris     string
	TZSource      string
	TZPath        string
	PlacesPath    string
	Workers       int
	Render        bool

	MetricsAddr     string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	// Artifact notifications; disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	scale, err := parsePositiveInt("SCALE", "100")
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("WORKERS", strconv.Itoa(runtime.NumCPU()))
	if err != nil {
		return nil, err
	}

	ref, err := time.Parse(time.RFC3339, sharedcfg.EnvOrDefault("REFERENCE_TIME", "2019-03-20T12:00:00Z"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFERENCE_TIME: %w", err)
	}

	render, err := strconv.ParseBool(sharedcfg.EnvOrDefault("RENDER", "true"))
	if err != nil {
		return nil, errors.New("invalid RENDER")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		DataDir:       sharedcfg.EnvOrDefault("DATA_DIR", "."),
		GlobeArchive:  sharedcfg.EnvOrDefault("GLOBE_ARCHIVE", "all10g.zip"),
		GlobeTileDir:  os.Getenv("GLOBE_TILE_DIR"),
		Scale:         scale,
		ReferenceTime: ref.UTC(),
		Ephemeris:     strings.ToLower(sharedcfg.EnvOrDefault("EPHEMERIS", EphemerisMeeus)),
		TZSource:      strings.ToLower(sharedcfg.EnvOrDefault("TZ_SOURCE", TZSourceShapefile)),
		TZPath:        sharedcfg.EnvOrDefault("TZ_PATH", "ne_10m_time_zones.zip"),
		PlacesPath:    sharedcfg.EnvOrDefault("PLACES_PATH", "ne_10m_populated_places.zip"),
		Workers:       workers,
		Render:        render,

		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "raster-artifacts"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that flags may have overridden after Load.
func (c *Config) Validate() error {
	if c.Scale <= 0 {
		return errors.New("SCALE must be a positive integer")
	}
	if c.Workers <= 0 {
		return errors.New("WORKERS must be a positive integer")
	}
	switch c.Ephemeris {
	case EphemerisMeeus, EphemerisSunrise:
	default:
		return fmt.Errorf("unknown EPHEMERIS %q", c.Ephemeris)
	}
	switch c.TZSource {
	case TZSourceShapefile, TZSourceGeoJSON, TZSourceTZF:
	default:
		return fmt.Errorf("unknown TZ_SOURCE %q", c.TZSource)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

// Path resolves a dataset or artifact path against DataDir. Absolute paths
// are returned unchanged.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func parsePositiveInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
