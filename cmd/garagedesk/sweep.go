package main

import (
	"context"

	"github.com/smallbiznis/garagedesk/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newSweepOverdueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Flag sent invoices past their due date as overdue and exit",
		RunE:  runSweepOverdue,
	}
	cmd.Flags().Int("batch-size", 0, "invoices flagged per batch (default SCHEDULER_BATCH_SIZE)")
	return cmd
}

func runSweepOverdue(cmd *cobra.Command, args []string) error {
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	app := fx.New(
		coreModules(cmd),
		domainModules(),
		fx.Provide(scheduler.ProvideConfig),
		fx.Decorate(func(cfg scheduler.Config) scheduler.Config {
			if batchSize > 0 {
				cfg.BatchSize = batchSize
			}
			return cfg
		}),
		fx.Provide(scheduler.New),
		fx.Invoke(func(lc fx.Lifecycle, sched *scheduler.Scheduler, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					log.Info("running overdue sweep")
					return sched.RunOnce(ctx)
				},
			})
		}),
	)
	return runOnce(cmd.Context(), app)
}
