package main

import (
	"context"

	"github.com/couchcryptid/noonmap/internal/adapter/mapbox"
	"github.com/couchcryptid/noonmap/internal/cities"
	"github.com/spf13/cobra"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "Guess the time zone of a few cities from solar noon and compare with the legal one.",
	Long: `For each city the nearest grid cell is looked up and 24 minus its noon offset is
printed as HH:MM beside the time-zone raster value. Cities are read from the Natural
Earth populated places shapefile, or geocoded through Mapbox when a token is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}

		var locator cities.Locator = cities.ShapefilePlaces{Path: a.cfg.Path(a.cfg.PlacesPath)}
		if a.cfg.MapboxEnabled {
			client := mapbox.NewClient(a.cfg.MapboxToken, a.cfg.MapboxTimeout, a.logger, a.metrics)
			locator = cities.GeocoderLocator{
				Geocoder: mapbox.NewCachedGeocoder(client, a.cfg.MapboxCacheSize, a.metrics),
				Logger:   a.logger,
			}
			a.logger.Info("mapbox geocoding enabled", "cache_size", a.cfg.MapboxCacheSize, "timeout", a.cfg.MapboxTimeout)
		}

		return a.run(func(ctx context.Context) error {
			g, err := a.pipeline.Grid(ctx)
			if err != nil {
				return err
			}
			noon, err := a.pipeline.Noon(ctx)
			if err != nil {
				return err
			}
			tz, err := a.pipeline.TimeZone(ctx)
			if err != nil {
				return err
			}
			places, err := locator.Locate(ctx, cities.DefaultCities)
			if err != nil {
				return err
			}
			results, err := cities.Check(g, noon, tz, places)
			if err != nil {
				return err
			}
			return cities.Report(cmd.OutOrStdout(), results)
		})
	},
}
