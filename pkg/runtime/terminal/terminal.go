package terminal

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/de-tools/benford-monitor/pkg/runtime/terminal/commands"
	"github.com/de-tools/benford-monitor/pkg/runtime/terminal/export"
)

// CLI represents the command-line interface
type CLI struct {
	configPath string
	output     io.Writer
	logOutput  io.Writer
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	// Output receives reports; LogOutput receives structured logs.
	Output    io.Writer
	LogOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	cli := &CLI{
		output:    opts.Output,
		logOutput: opts.LogOutput,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// ExecuteContext runs the CLI with ctx as the parent of every command's context.
func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "benford",
		Short:         "Benford's Law monitor for published savings data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "",
		"Path to a config file (yaml, toml, json or ini); BENFORD_* env vars override it")

	reporters := map[string]commands.ReportHandler{
		commands.FormatTable: export.NewReporter(cli.output),
		commands.FormatText:  NewReporter(cli.output),
	}

	cmd.AddCommand(commands.NewRunCmd(&cli.configPath, cli.logOutput))
	cmd.AddCommand(commands.NewAnalyzeCmd(&cli.configPath, cli.logOutput, reporters))

	return cmd
}
