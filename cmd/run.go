package cmd

import (
	"context"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/recruiting"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Screen every resume of the talent bank against the stored openings",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceP("opening", "o", nil, "screen only these opening ids (repeatable)")
}

func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApplication()
	defer a.Close()

	a.logger.Info("starting the cv-screener", zap.String("version", version))

	only, _ := cmd.Flags().GetStringSlice("opening")
	targets := selectOpenings(a.store.Openings(), only)
	if len(targets) == 0 {
		a.logger.Info("exiting", zap.String("reason", "no openings to screen"))
		return
	}

	runner, err := a.runner(ctx)
	if err != nil {
		a.logger.Fatal("preparing the pipeline", zap.Error(err))
	}

	summary := runner.Run(ctx, targets)
	a.logger.Info("screening finished",
		zap.Int("documents", summary.Documents),
		zap.Int("persisted", summary.Count(pipeline.StatePersisted)),
		zap.Int("duplicates", summary.Count(pipeline.StateDuplicate)),
		zap.Int("skipped", summary.Count(pipeline.StateSkipped)),
		zap.Int("abandoned", summary.Count(pipeline.StateAbandoned)),
	)
}

// selectOpenings keeps the openings whose id is in only; an empty only keeps all.
func selectOpenings(all []recruiting.Opening, only []string) []recruiting.Opening {
	if len(only) == 0 {
		return all
	}
	return slices.DeleteFunc(all, func(o recruiting.Opening) bool {
		return !slices.Contains(only, o.ID)
	})
}
