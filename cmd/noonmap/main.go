// Command noonmap computes, for every cell of a global grid, how far local
// solar noon drifts from legal civil time, and renders the rasters as maps.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile string
	flags   overrides

	rootCmd = &cobra.Command{
		Use:   "noonmap",
		Short: "Solar noon versus civil time rasters.",
		Long: `noonmap builds a downsampled elevation grid from the GLOBE dataset, solves the
horizon-adjusted solar transit for every cell, classifies each cell into its civil
time zone and writes the difference as flat float64 arrays and PNG maps.
Every stage is memoized on its output file in the data directory.`,
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env", ".env", "The env file to read.")
	pf.StringVar(&flags.dataDir, "data-dir", "", "Directory holding datasets and artifacts (DATA_DIR).")
	pf.IntVar(&flags.workers, "workers", 0, "Rows computed in parallel (WORKERS).")
	pf.IntVar(&flags.scale, "scale", 0, "Downsampling factor of the GLOBE grid (SCALE).")
	pf.StringVar(&flags.reference, "reference", "", "Reference instant, RFC 3339 (REFERENCE_TIME).")
	pf.StringVar(&flags.ephemeris, "ephemeris", "", "Solar ephemeris: meeus or sunrise (EPHEMERIS).")
	pf.StringVar(&flags.tzSource, "tz-source", "", "Time-zone source: shapefile, geojson or tzf (TZ_SOURCE).")
	pf.StringVar(&flags.tzPath, "tz-path", "", "Time-zone polygons file (TZ_PATH).")
	pf.BoolVar(&flags.noRender, "no-render", false, "Skip PNG rendering.")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve /healthz, /readyz, /metrics and /artifacts on this address (METRICS_ADDR).")

	rootCmd.AddCommand(stageCommands()...)
	rootCmd.AddCommand(allCmd, renderCmd, citiesCmd)
}

func initConfig() {
	err := godotenv.Load(envFile)
	if err != nil {
		slog.Debug("failed to load env file", "error", err.Error())
	}
}
