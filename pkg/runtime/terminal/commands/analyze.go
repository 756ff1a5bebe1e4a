package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

const (
	FormatTable = "table"
	FormatText  = "text"
)

// ReportHandler prints a finished report.
type ReportHandler interface {
	Handle(report *domain.Report) error
}

type AnalyzeCmd struct {
	configPath *string
	logOutput  io.Writer
	reporters  map[string]ReportHandler
	format     string
	dryRun     bool
}

func NewAnalyzeCmd(configPath *string, logOutput io.Writer, reporters map[string]ReportHandler) *cobra.Command {
	ac := &AnalyzeCmd{configPath: configPath, logOutput: logOutput, reporters: reporters}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a single analysis cycle and print the digit breakdown",
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.format, "format", FormatTable, "Output format (table or text)")
	cmd.Flags().BoolVar(&ac.dryRun, "dry-run", false, "Skip writing the chart and page")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, _ []string) error {
	reporter, ok := ac.reporters[ac.format]
	if !ok {
		return fmt.Errorf("unsupported format %q", ac.format)
	}

	app, err := NewApp(cmd.Context(), AppOptions{
		ConfigPath: *ac.configPath,
		LogOutput:  ac.logOutput,
		DryRun:     ac.dryRun,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cycleTimeout(app.Config.Source.Timeout))
	defer cancel()
	ctx = app.Logger.WithContext(ctx)

	res, err := app.Pipeline.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("analysis cycle %s failed: %w", res.ID, err)
	}

	return reporter.Handle(&res.Report)
}

// cycleTimeout leaves room for a full source timeout plus rendering and publishing.
func cycleTimeout(sourceTimeout time.Duration) time.Duration {
	return 2*sourceTimeout + 30*time.Second
}
