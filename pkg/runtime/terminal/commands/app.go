package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/de-tools/benford-monitor/pkg/metrics"
	"github.com/de-tools/benford-monitor/pkg/publish"
	"github.com/de-tools/benford-monitor/pkg/runtime/chart"
	"github.com/de-tools/benford-monitor/pkg/services/benford"
	"github.com/de-tools/benford-monitor/pkg/services/config"
	"github.com/de-tools/benford-monitor/pkg/services/monitor"
	"github.com/de-tools/benford-monitor/pkg/services/report"
	"github.com/de-tools/benford-monitor/pkg/services/savings"
	savingsstore "github.com/de-tools/benford-monitor/pkg/store/savings"
)

// App holds the components shared by the run and analyze commands.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Fs       afero.Fs
	Pipeline *monitor.Pipeline
}

type AppOptions struct {
	ConfigPath string
	LogOutput  io.Writer
	// DryRun replaces every publisher with publish.Discard.
	DryRun bool
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
}

func NewLogger(cfg config.LogConfig, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("failed to parse log level: %w", err)
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func NewApp(ctx context.Context, opts AppOptions) (*App, error) {
	// .env is optional; BENFORD_* variables already in the environment win.
	_ = godotenv.Load()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := NewLogger(cfg.Log, opts.LogOutput)
	if err != nil {
		return nil, err
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	categories := cfg.Categories()
	store, err := savingsstore.NewStore(savingsstore.Settings{
		BaseURL:            cfg.Source.BaseURL,
		Timeout:            cfg.Source.Timeout,
		RateLimit:          cfg.Source.RateLimit,
		RateBurst:          len(categories),
		BreakerFailures:    cfg.Source.Breaker.Failures,
		BreakerOpenTimeout: cfg.Source.Breaker.OpenTimeout,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create savings store: %w", err)
	}

	publisher, err := newPublisher(ctx, cfg, fs, opts.DryRun)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	pipeline, err := monitor.NewPipeline(monitor.Dependencies{
		Aggregator: savings.NewAggregator(store, categories),
		Analyzer:   benford.NewAnalyzer(cfg.Analysis.Tolerance),
		Reporter: report.NewRenderer(report.Settings{
			ChartFile:      cfg.Output.ChartFile,
			RefreshSeconds: cfg.Output.RefreshSeconds,
		}),
		Charts:    chart.NewPNGRenderer(chart.DarkTheme),
		Publisher: publisher,
		Metrics:   m,
	}, monitor.PipelineSettings{
		ChartFile: cfg.Output.ChartFile,
		PageFile:  cfg.Output.PageFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Fs:       fs,
		Pipeline: pipeline,
	}, nil
}

func newPublisher(ctx context.Context, cfg *config.Config, fs afero.Fs, dryRun bool) (publish.Publisher, error) {
	if dryRun {
		return publish.Discard, nil
	}

	publishers := []publish.Publisher{publish.NewFilePublisher(fs, cfg.Output.Dir)}
	if s3cfg := cfg.Output.S3; s3cfg.Bucket != "" {
		mirror, err := publish.NewS3PublisherFromEnv(ctx, publish.S3Settings{
			Bucket: s3cfg.Bucket,
			Prefix: s3cfg.Prefix,
			Region: s3cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 publisher: %w", err)
		}
		publishers = append(publishers, mirror)
	}
	if len(publishers) == 1 {
		return publishers[0], nil
	}
	return publish.Chain(publishers...), nil
}
