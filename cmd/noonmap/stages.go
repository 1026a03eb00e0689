package main

import (
	"context"

	"github.com/couchcryptid/noonmap/internal/pipeline"
	"github.com/spf13/cobra"
)

var stageHelp = map[string]string{
	pipeline.StageElevation: "Build the downsampled elevation grid and its axes.",
	pipeline.StageNoon:      "Compute hours from the reference instant to the next solar transit.",
	pipeline.StageSunset:    "Compute hours from the reference instant to the next sunset.",
	pipeline.StageSunrise:   "Compute hours from the reference instant to the next sunrise.",
	pipeline.StageTimeZone:  "Classify every cell into its civil time-zone offset.",
	pipeline.StageDiff:      "Compute the circular difference between noon and civil time.",
}

// stageCommands returns one command per pipeline stage. Each runs the
// stage's prerequisites first; finished artifacts are reused.
func stageCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(pipeline.Stages))
	for _, stage := range pipeline.Stages {
		cmds = append(cmds, &cobra.Command{
			Use:   stage,
			Short: stageHelp[stage],
			Args:  cobra.NoArgs,
			RunE:  runStages(false, stage),
		})
	}
	return cmds
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every stage.",
	Args:  cobra.NoArgs,
	RunE:  runStages(false),
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Run every stage and draw a PNG for each raster, even when RENDER is off.",
	Args:  cobra.NoArgs,
	RunE:  runStages(true),
}

func runStages(forceRender bool, stages ...string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd, forceRender)
		if err != nil {
			return err
		}
		return a.run(func(ctx context.Context) error {
			return a.pipeline.Run(ctx, stages...)
		})
	}
}
