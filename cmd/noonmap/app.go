package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/couchcryptid/noonmap/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/noonmap/internal/adapter/kafka"
	"github.com/couchcryptid/noonmap/internal/adapter/store"
	"github.com/couchcryptid/noonmap/internal/config"
	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/couchcryptid/noonmap/internal/elevation"
	"github.com/couchcryptid/noonmap/internal/ephemeris"
	"github.com/couchcryptid/noonmap/internal/observability"
	"github.com/couchcryptid/noonmap/internal/pipeline"
	"github.com/couchcryptid/noonmap/internal/render"
	"github.com/couchcryptid/noonmap/internal/timezone"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// overrides holds command-line flags that take precedence over the environment.
type overrides struct {
	dataDir     string
	workers     int
	scale       int
	reference   string
	ephemeris   string
	tzSource    string
	tzPath      string
	noRender    bool
	metricsAddr string
}

func (o overrides) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if changed("workers") {
		cfg.Workers = o.workers
	}
	if changed("scale") {
		cfg.Scale = o.scale
	}
	if changed("reference") {
		ref, err := time.Parse(time.RFC3339, o.reference)
		if err != nil {
			return fmt.Errorf("invalid --reference: %w", err)
		}
		cfg.ReferenceTime = ref.UTC()
	}
	if changed("ephemeris") {
		cfg.Ephemeris = strings.ToLower(o.ephemeris)
	}
	if changed("tz-source") {
		cfg.TZSource = strings.ToLower(o.tzSource)
	}
	if changed("tz-path") {
		cfg.TZPath = o.tzPath
	}
	if changed("no-render") {
		cfg.Render = !o.noRender
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = o.metricsAddr
	}
	return cfg.Validate()
}

// app wires configuration into a pipeline for one command invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	store    *store.Store
	pipeline *pipeline.Pipeline
	notifier *kafkaadapter.Notifier
}

func newApp(cmd *cobra.Command, forceRender bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return nil, err
	}
	if forceRender {
		cfg.Render = true
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	st, err := store.New(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	eph, err := newEphemeris(cfg.Ephemeris)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, metrics: metrics, store: st}

	opts := pipeline.Options{Reference: cfg.ReferenceTime, Workers: cfg.Workers}
	if cfg.Render {
		opts.Renderer = render.NewPNG(st, logger)
	}
	if len(cfg.KafkaBrokers) > 0 {
		a.notifier = kafkaadapter.NewNotifier(cfg, logger)
		opts.Notifier = a.notifier
		logger.Info("artifact notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	elev := elevation.Dataset{
		Archive: cfg.Path(cfg.GlobeArchive),
		TileDir: cfg.Path(cfg.GlobeTileDir),
		Layout:  elevation.GlobeLayout,
		Scale:   cfg.Scale,
		Logger:  logger,
	}
	a.pipeline = pipeline.New(st, elev, eph, classifierLoader(cfg, logger), opts, logger, metrics)
	return a, nil
}

func newEphemeris(name string) (domain.Ephemeris, error) {
	switch name {
	case config.EphemerisMeeus:
		return ephemeris.NewMeeus(), nil
	case config.EphemerisSunrise:
		return ephemeris.NewSunrise(), nil
	}
	return nil, fmt.Errorf("unknown ephemeris %q", name)
}

func classifierLoader(cfg *config.Config, logger *slog.Logger) pipeline.ClassifierLoader {
	return func() (timezone.Classifier, error) {
		var src timezone.Source
		switch cfg.TZSource {
		case config.TZSourceTZF:
			logger.Info("classifying time zones with tzf", "reference", cfg.ReferenceTime)
			return timezone.NewTZFClassifier(cfg.ReferenceTime, logger)
		case config.TZSourceGeoJSON:
			src = timezone.GeoJSONSource{Path: cfg.Path(cfg.TZPath)}
		default:
			src = timezone.ShapefileSource{Path: cfg.Path(cfg.TZPath)}
		}
		zones, err := src.Zones()
		if err != nil {
			return nil, fmt.Errorf("load time zones: %w", err)
		}
		logger.Info("time zones loaded", "source", cfg.TZSource, "zones", len(zones))
		return timezone.NewIndex(zones), nil
	}
}

// run executes fn under a signal-aware context, serving the operational
// endpoints while it runs when a metrics address is configured.
func (a *app) run(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if a.cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(a.cfg.MetricsAddr, a.pipeline, a.store, prometheus.DefaultGatherer, a.logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("http server error", "error", err)
			}
		}()
	}

	err := fn(ctx)
	if err != nil {
		a.logger.Error("run failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", "error", err)
		}
	}
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.logger.Error("kafka notifier close error", "error", err)
		}
	}
	return err
}
