package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/de-tools/benford-monitor/pkg/server"
	"github.com/de-tools/benford-monitor/pkg/services/monitor"
)

type RunCmd struct {
	configPath *string
	logOutput  io.Writer
	serve      bool
}

func NewRunCmd(configPath *string, logOutput io.Writer) *cobra.Command {
	rc := &RunCmd{configPath: configPath, logOutput: logOutput}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyze the savings data on a schedule and publish the results",
		RunE:  rc.run,
	}

	cmd.Flags().BoolVar(&rc.serve, "serve", false, "Serve the published page, /healthz and /metrics (overrides server.enabled)")

	return cmd
}

func (rc *RunCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, AppOptions{ConfigPath: *rc.configPath, LogOutput: rc.logOutput})
	if err != nil {
		return err
	}
	cfg := app.Config
	logger := app.Logger
	ctx = logger.WithContext(ctx)

	scheduler, err := monitor.NewScheduler(app.Pipeline, monitor.SchedulerSettings{
		Interval:     cfg.Schedule.Interval,
		Cron:         cfg.Schedule.Cron,
		CycleTimeout: cycleTimeout(cfg.Source.Timeout),
	}, app.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if rc.serve || cfg.Server.Enabled {
		webAPI := server.NewWebAPI(logger, server.Config{
			Addr: cfg.Server.Addr,
			Dependencies: server.Dependencies{
				Status:    scheduler,
				Metrics:   app.Metrics.Handler(),
				Fs:        app.Fs,
				OutputDir: cfg.Output.Dir,
			},
		})
		g.Go(func() error {
			return webAPI.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("monitor stopped: %w", err)
	}
	logger.Info().Msg("monitor stopped")
	return nil
}
