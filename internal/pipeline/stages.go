package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

// Elevation returns the grid axes and the elevation raster, building them
// from the elevation source when elev.bin, lon.bin or lat.bin is missing.
func (p *Pipeline) Elevation(ctx context.Context) (domain.Grid, domain.Raster, error) {
	p.mu.Lock()
	if p.grid != nil {
		g, r := *p.grid, p.rasters[domain.ElevationFile]
		p.mu.Unlock()
		return g, r, nil
	}
	p.mu.Unlock()

	if p.store.Exists(domain.ElevationFile) && p.store.Exists(domain.LonFile) && p.store.Exists(domain.LatFile) {
		g, err := p.store.ReadGrid()
		if err != nil {
			return domain.Grid{}, domain.Raster{}, err
		}
		r, err := p.store.ReadRaster(domain.ElevationFile, g)
		if err != nil {
			return domain.Grid{}, domain.Raster{}, err
		}
		p.metrics.ArtifactCache.WithLabelValues(domain.ElevationFile, "hit").Inc()
		p.setGrid(g, r)
		if _, err := p.cachedOrRender(domain.ElevationFile, r); err != nil {
			return domain.Grid{}, domain.Raster{}, err
		}
		return g, r, nil
	}
	p.metrics.ArtifactCache.WithLabelValues(domain.ElevationFile, "miss").Inc()

	start := time.Now()
	g, r, err := p.elevation.Build(ctx)
	if err != nil {
		return domain.Grid{}, domain.Raster{}, fmt.Errorf("build elevation: %w", err)
	}
	p.observe(StageElevation, g, start)

	if err := p.writeArtifact(ctx, StageElevation, domain.LonFile, g.Lon, []int{len(g.Lon)}); err != nil {
		return domain.Grid{}, domain.Raster{}, err
	}
	if err := p.writeArtifact(ctx, StageElevation, domain.LatFile, g.Lat, []int{len(g.Lat)}); err != nil {
		return domain.Grid{}, domain.Raster{}, err
	}
	p.setGrid(g, r)
	if err := p.persist(ctx, StageElevation, domain.ElevationFile, r); err != nil {
		return domain.Grid{}, domain.Raster{}, err
	}
	return g, r, nil
}

func (p *Pipeline) setGrid(g domain.Grid, elev domain.Raster) {
	p.mu.Lock()
	p.grid = &g
	p.rasters[domain.ElevationFile] = elev
	p.mu.Unlock()
}

// Noon returns hours from the reference instant to the next solar transit
// of every cell, unwrapped.
func (p *Pipeline) Noon(ctx context.Context) (domain.Raster, error) {
	g, elev, err := p.Elevation(ctx)
	if err != nil {
		return domain.Raster{}, err
	}
	cached, ok, err := p.memo(domain.NoonFile, g)
	if err != nil {
		return domain.Raster{}, err
	}
	if ok {
		return p.cachedOrRender(domain.NoonFile, cached)
	}

	ref := p.opts.Reference
	out, err := p.compute(ctx, StageNoon, g, func(iy, ix int) (float64, error) {
		obs, err := domain.NewObserver(g.Lat[iy], g.Lon[ix], elev.At(iy, ix))
		if err != nil {
			return 0, err
		}
		t, err := p.ephemeris.NextTransit(obs, ref)
		if err != nil {
			p.metrics.SolverErrors.WithLabelValues(StageNoon).Inc()
			return 0, fmt.Errorf("transit at lat %.4f lon %.4f: %w",
				domain.Degrees(obs.Lat), domain.Degrees(obs.Lon), err)
		}
		return domain.HoursSince(ref, t), nil
	})
	if err != nil {
		return domain.Raster{}, err
	}
	return out, p.persist(ctx, StageNoon, domain.NoonFile, out)
}

// Sunset returns hours from the reference instant to the next setting,
// or domain.NoEvent where the Sun does not set.
func (p *Pipeline) Sunset(ctx context.Context) (domain.Raster, error) {
	return p.riseSet(ctx, StageSunset, domain.SunsetFile, p.ephemeris.NextSetting)
}

// Sunrise returns hours from the reference instant to the next rising,
// or domain.NoEvent where the Sun does not rise.
func (p *Pipeline) Sunrise(ctx context.Context) (domain.Raster, error) {
	return p.riseSet(ctx, StageSunrise, domain.SunriseFile, p.ephemeris.NextRising)
}

func (p *Pipeline) riseSet(ctx context.Context, stage, name string,
	solve func(domain.Observer, time.Time) (time.Time, error)) (domain.Raster, error) {
	g, elev, err := p.Elevation(ctx)
	if err != nil {
		return domain.Raster{}, err
	}
	cached, ok, err := p.memo(name, g)
	if err != nil {
		return domain.Raster{}, err
	}
	if ok {
		return p.cachedOrRender(name, cached)
	}

	var alwaysUp, neverUp atomic.Int64
	ref := p.opts.Reference
	out, err := p.compute(ctx, stage, g, func(iy, ix int) (float64, error) {
		obs, err := domain.NewObserver(g.Lat[iy], g.Lon[ix], elev.At(iy, ix))
		if err != nil {
			return 0, err
		}
		t, err := solve(obs, ref)
		switch {
		case errors.Is(err, domain.ErrAlwaysUp):
			alwaysUp.Add(1)
			return domain.NoEvent, nil
		case errors.Is(err, domain.ErrNeverUp):
			neverUp.Add(1)
			return domain.NoEvent, nil
		case err != nil:
			p.metrics.SolverErrors.WithLabelValues(stage).Inc()
			return 0, fmt.Errorf("%s at lat %.4f lon %.4f: %w", stage,
				domain.Degrees(obs.Lat), domain.Degrees(obs.Lon), err)
		}
		return domain.HoursSince(ref, t), nil
	})
	if err != nil {
		return domain.Raster{}, err
	}

	p.metrics.PolarCells.WithLabelValues(stage, "always_up").Add(float64(alwaysUp.Load()))
	p.metrics.PolarCells.WithLabelValues(stage, "never_up").Add(float64(neverUp.Load()))
	if n := alwaysUp.Load() + neverUp.Load(); n > 0 {
		p.logger.Info("polar cells without event", "stage", stage,
			"always_up", alwaysUp.Load(), "never_up", neverUp.Load())
	}
	return out, p.persist(ctx, stage, name, out)
}

// TimeZone returns the normalized legal offset of every cell. Cells no
// zone covers stay 0.
func (p *Pipeline) TimeZone(ctx context.Context) (domain.Raster, error) {
	g, err := p.Grid(ctx)
	if err != nil {
		return domain.Raster{}, err
	}
	cached, ok, err := p.memo(domain.TimeZoneFile, g)
	if err != nil {
		return domain.Raster{}, err
	}
	if ok {
		return p.cachedOrRender(domain.TimeZoneFile, cached)
	}

	clf, err := p.classifier()
	if err != nil {
		return domain.Raster{}, fmt.Errorf("load time zones: %w", err)
	}

	var unclassified atomic.Int64
	out, err := p.compute(ctx, StageTimeZone, g, func(iy, ix int) (float64, error) {
		pt := orb.Point{domain.Degrees(g.Lon[ix]), domain.Degrees(g.Lat[iy])}
		off, ok := clf.Classify(pt)
		if !ok {
			unclassified.Add(1)
			return 0, nil
		}
		return off, nil
	})
	if err != nil {
		return domain.Raster{}, err
	}

	if n := unclassified.Load(); n > 0 {
		p.metrics.Unclassified.Add(float64(n))
		p.logger.Warn("cells outside every time zone", "cells", n, "total", g.Cells())
	}
	return out, p.persist(ctx, StageTimeZone, domain.TimeZoneFile, out)
}

// Difference returns the circular difference between the noon and
// time-zone rasters.
func (p *Pipeline) Difference(ctx context.Context) (domain.Raster, error) {
	g, err := p.Grid(ctx)
	if err != nil {
		return domain.Raster{}, err
	}
	cached, ok, err := p.memo(domain.TimeZoneDiffFile, g)
	if err != nil {
		return domain.Raster{}, err
	}
	if ok {
		return p.cachedOrRender(domain.TimeZoneDiffFile, cached)
	}

	noon, err := p.Noon(ctx)
	if err != nil {
		return domain.Raster{}, err
	}
	tz, err := p.TimeZone(ctx)
	if err != nil {
		return domain.Raster{}, err
	}

	start := time.Now()
	out, err := domain.Difference(g, noon, tz)
	if err != nil {
		return domain.Raster{}, err
	}
	p.observe(StageDiff, g, start)
	return out, p.persist(ctx, StageDiff, domain.TimeZoneDiffFile, out)
}

// compute evaluates cell for every grid cell, fanning rows out over the
// configured number of workers.
func (p *Pipeline) compute(ctx context.Context, stage string, g domain.Grid,
	cell func(iy, ix int) (float64, error)) (domain.Raster, error) {
	out := domain.NewRaster(g)
	start := time.Now()
	err := forEachRow(ctx, out.NLat, p.opts.Workers, func(iy int) error {
		row := out.Row(iy)
		for ix := range row {
			v, err := cell(iy, ix)
			if err != nil {
				return err
			}
			row[ix] = v
		}
		return nil
	})
	if err != nil {
		return domain.Raster{}, err
	}
	p.observe(stage, g, start)
	return out, nil
}

func (p *Pipeline) observe(stage string, g domain.Grid, start time.Time) {
	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	p.metrics.CellsComputed.WithLabelValues(stage).Add(float64(g.Cells()))
	p.logger.Info("stage computed", "stage", stage, "cells", g.Cells(), "duration", elapsed)
}

// forEachRow runs fn for rows [0, n) on at most workers goroutines. The
// first error cancels the remaining rows.
func forEachRow(ctx context.Context, n, workers int, fn func(iy int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for iy := 0; iy < n; iy++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(iy)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
