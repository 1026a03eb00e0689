package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/noonmap/internal/adapter/store"
	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/couchcryptid/noonmap/internal/observability"
	"github.com/couchcryptid/noonmap/internal/timezone"
)

// Stage names, in dependency order.
const (
	StageElevation = "elevation"
	StageNoon      = "noon"
	StageSunset    = "sunset"
	StageSunrise   = "sunrise"
	StageTimeZone  = "timezone"
	StageDiff      = "diff"
)

// Stages lists every stage in the order Run executes them.
var Stages = []string{StageElevation, StageNoon, StageSunset, StageSunrise, StageTimeZone, StageDiff}

// ErrUnknownStage is returned by Run for names not in Stages.
var ErrUnknownStage = errors.New("unknown stage")

// ElevationSource builds the global elevation raster and its axes.
type ElevationSource interface {
	Build(ctx context.Context) (domain.Grid, domain.Raster, error)
}

// ClassifierLoader loads a time-zone classifier on first use.
type ClassifierLoader func() (timezone.Classifier, error)

// Notifier is told about every artifact the pipeline writes.
type Notifier interface {
	Notify(ctx context.Context, event domain.ArtifactEvent) error
}

// Renderer draws a raster artifact, typically as a PNG next to it.
type Renderer interface {
	Render(name string, r domain.Raster) error
}

// Options tune a pipeline run.
type Options struct {
	Reference time.Time
	Workers   int
	Notifier  Notifier // optional
	Renderer  Renderer // optional
}

// Pipeline computes memoized rasters. Every stage first looks for its
// artifact in the store and only computes it when absent.
type Pipeline struct {
	store      *store.Store
	elevation  ElevationSource
	ephemeris  domain.Ephemeris
	classifier ClassifierLoader
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool

	mu      sync.Mutex
	grid    *domain.Grid
	rasters map[string]domain.Raster
}

// New creates a Pipeline over the given collaborators.
func New(st *store.Store, elev ElevationSource, eph domain.Ephemeris, classifier ClassifierLoader,
	opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Reference.IsZero() {
		opts.Reference = domain.DefaultReference
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{
		store:      st,
		elevation:  elev,
		ephemeris:  eph,
		classifier: classifier,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
		rasters:    make(map[string]domain.Raster),
	}
}

// CheckReadiness returns nil once a Run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes the named stages, or all of them when none are given.
// Prerequisites run implicitly and are memoized.
func (p *Pipeline) Run(ctx context.Context, stages ...string) error {
	if len(stages) == 0 {
		stages = Stages
	}
	for _, s := range stages {
		if !isStage(s) {
			return fmt.Errorf("%w: %q", ErrUnknownStage, s)
		}
	}

	p.logger.Info("pipeline started", "stages", stages, "workers", p.opts.Workers,
		"reference", p.opts.Reference.Format(time.RFC3339))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for _, s := range stages {
		if err := p.runStage(ctx, s); err != nil {
			return fmt.Errorf("stage %s: %w", s, err)
		}
	}
	p.ready.Store(true)
	p.logger.Info("pipeline finished", "stages", stages)
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, stage string) error {
	var err error
	switch stage {
	case StageElevation:
		_, _, err = p.Elevation(ctx)
	case StageNoon:
		_, err = p.Noon(ctx)
	case StageSunset:
		_, err = p.Sunset(ctx)
	case StageSunrise:
		_, err = p.Sunrise(ctx)
	case StageTimeZone:
		_, err = p.TimeZone(ctx)
	case StageDiff:
		_, err = p.Difference(ctx)
	}
	return err
}

func isStage(name string) bool {
	for _, s := range Stages {
		if s == name {
			return true
		}
	}
	return false
}

// Grid returns the axes, building the elevation stage if they are missing.
func (p *Pipeline) Grid(ctx context.Context) (domain.Grid, error) {
	g, _, err := p.Elevation(ctx)
	return g, err
}

// memo returns an in-process or on-disk copy of an artifact.
func (p *Pipeline) memo(name string, g domain.Grid) (domain.Raster, bool, error) {
	p.mu.Lock()
	r, ok := p.rasters[name]
	p.mu.Unlock()
	if ok {
		return r, true, nil
	}
	if !p.store.Exists(name) {
		p.metrics.ArtifactCache.WithLabelValues(name, "miss").Inc()
		return domain.Raster{}, false, nil
	}
	r, err := p.store.ReadRaster(name, g)
	if err != nil {
		return domain.Raster{}, false, err
	}
	p.metrics.ArtifactCache.WithLabelValues(name, "hit").Inc()
	p.logger.Debug("artifact cached", "artifact", name)
	p.remember(name, r)
	return r, true, nil
}

func (p *Pipeline) remember(name string, r domain.Raster) {
	p.mu.Lock()
	p.rasters[name] = r
	p.mu.Unlock()
}

// persist writes a computed raster, records it in the manifest and
// announces it.
func (p *Pipeline) persist(ctx context.Context, stage, name string, r domain.Raster) error {
	if err := p.writeArtifact(ctx, stage, name, r.Data, []int{r.NLat, r.NLon}); err != nil {
		return err
	}
	p.remember(name, r)
	return p.render(name, r)
}

func (p *Pipeline) writeArtifact(ctx context.Context, stage, name string, values []float64, shape []int) error {
	digest, err := p.store.WriteFloats(name, values)
	if err != nil {
		return err
	}
	entry, err := p.store.Record(name, shape, digest)
	if err != nil {
		return err
	}

	ev := domain.ArtifactEvent{
		Name:      name,
		Stage:     stage,
		SHA256:    digest,
		CreatedAt: entry.CreatedAt,
	}
	ev.NLat = shape[0]
	if len(shape) > 1 {
		ev.NLon = shape[1]
	}
	if len(values) > 0 {
		raster := domain.Raster{Data: values}
		ev.Min, ev.Max = raster.Bounds()
		ev.Mean = raster.Mean()
	}
	p.logger.Info("artifact written", "artifact", name, "stage", stage, "shape", shape)
	p.notify(ctx, ev)
	return nil
}

// notify publishes an artifact event. Failures are logged and counted but
// never fail the stage.
func (p *Pipeline) notify(ctx context.Context, ev domain.ArtifactEvent) {
	if p.opts.Notifier == nil {
		return
	}
	if err := p.opts.Notifier.Notify(ctx, ev); err != nil {
		p.metrics.NotificationsFailed.Inc()
		p.logger.Warn("artifact notification failed", "artifact", ev.Name, "error", err)
		return
	}
	p.metrics.NotificationsSent.Inc()
}

func (p *Pipeline) render(name string, r domain.Raster) error {
	if p.opts.Renderer == nil {
		return nil
	}
	if err := p.opts.Renderer.Render(name, r); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// cachedOrRender renders a memoized raster; renderers skip existing images.
func (p *Pipeline) cachedOrRender(name string, r domain.Raster) (domain.Raster, error) {
	return r, p.render(name, r)
}
