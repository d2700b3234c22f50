package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/store"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the screening batch periodically until interrupted",
	Run: func(_ *cobra.Command, _ []string) {
		schedule()
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().String("spec", "", "cron spec, e.g. \"@every 6h\" or \"0 */2 * * *\"")
	viper.BindPFlag("schedule.spec", scheduleCmd.Flags().Lookup("spec"))
}

// scheduler fires a screening batch on a cron spec. Overlapping runs are skipped.
type scheduler struct {
	cron   *cron.Cron
	spec   string
	runner *pipeline.Runner
	store  *store.Store
	logger *zap.Logger
}

func newScheduler(spec string, runner *pipeline.Runner, s *store.Store, logger *zap.Logger) *scheduler {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	return &scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.SkipIfStillRunning(cronLogger))),
		spec:   spec,
		runner: runner,
		store:  s,
		logger: logger,
	}
}

// Start registers the batch, starts the cron and runs one batch immediately.
func (s *scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.batch(ctx) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))

	// The wrapped job shares the skip-if-running guard with scheduled ticks.
	go s.cron.Entry(id).WrappedJob.Run()
	return nil
}

// Stop waits for a running batch to finish.
func (s *scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *scheduler) batch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	openings := s.store.Openings()
	if len(openings) == 0 {
		s.logger.Info("no openings to screen")
		return
	}
	s.runner.Run(ctx, openings)
}

func schedule() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApplication()
	defer a.Close()

	runner, err := a.runner(ctx)
	if err != nil {
		a.logger.Fatal("preparing the pipeline", zap.Error(err))
	}

	s := newScheduler(a.cfg.Schedule.Spec, runner, a.store, a.logger)
	if err := s.Start(ctx); err != nil {
		a.logger.Fatal("starting the scheduler", zap.Error(err))
	}

	<-ctx.Done()
	s.Stop()
}
