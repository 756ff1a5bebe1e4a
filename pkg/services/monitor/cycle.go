// Package monitor runs the fetch, analyze, render and publish cycle on a schedule.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/benford-monitor/pkg/metrics"
	"github.com/de-tools/benford-monitor/pkg/models/domain"
	"github.com/de-tools/benford-monitor/pkg/publish"
	"github.com/de-tools/benford-monitor/pkg/runtime/chart"
	"github.com/de-tools/benford-monitor/pkg/services/benford"
	"github.com/de-tools/benford-monitor/pkg/services/report"
	"github.com/de-tools/benford-monitor/pkg/services/savings"
)

type Stage string

const (
	StageAggregate Stage = "aggregate"
	StageAnalyze   Stage = "analyze"
	StageRender    Stage = "render"
	StagePublish   Stage = "publish"
)

const (
	pngContentType  = "image/png"
	htmlContentType = "text/html; charset=utf-8"

	DefaultPageFile = "index.html"
)

// StageError reports which step of a cycle failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage of a StageError anywhere in err's chain.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

type Dependencies struct {
	Aggregator savings.Aggregator
	Analyzer   benford.Analyzer
	Reporter   *report.Renderer
	Charts     chart.Renderer
	Publisher  publish.Publisher
	Metrics    *metrics.Metrics
}

type PipelineSettings struct {
	ChartFile string
	PageFile  string
}

// CycleResult describes one cycle. ID and the timestamps are set even when the cycle fails.
type CycleResult struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Analysis   domain.AnalysisResult
	Report     domain.Report
	Sources    []domain.CategorySavings
}

type Pipeline struct {
	deps     Dependencies
	settings PipelineSettings
	newID    func() string
}

func NewPipeline(deps Dependencies, settings PipelineSettings) (*Pipeline, error) {
	switch {
	case deps.Aggregator == nil:
		return nil, errors.New("pipeline requires an aggregator")
	case deps.Analyzer == nil:
		return nil, errors.New("pipeline requires an analyzer")
	case deps.Reporter == nil:
		return nil, errors.New("pipeline requires a report renderer")
	case deps.Charts == nil:
		return nil, errors.New("pipeline requires a chart renderer")
	case deps.Publisher == nil:
		return nil, errors.New("pipeline requires a publisher")
	}
	if settings.ChartFile == "" {
		settings.ChartFile = report.DefaultChartFile
	}
	if settings.PageFile == "" {
		settings.PageFile = DefaultPageFile
	}
	return &Pipeline{deps: deps, settings: settings, newID: uuid.NewString}, nil
}

// RunCycle executes one full cycle. A panic in any stage is returned as a StageError.
func (p *Pipeline) RunCycle(ctx context.Context) (res CycleResult, err error) {
	res.ID = p.newID()
	res.StartedAt = time.Now()

	logger := zerolog.Ctx(ctx).With().Str("cycle_id", res.ID).Logger()
	ctx = logger.WithContext(ctx)

	stage := StageAggregate
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
		res.FinishedAt = time.Now()
	}()

	logger.Info().Msg("cycle started")

	dataset, sources := p.deps.Aggregator.Aggregate(ctx)
	res.Sources = sources
	for _, s := range sources {
		p.deps.Metrics.ObserveFetch(string(s.Category), s.Err)
	}
	if err := ctx.Err(); err != nil {
		return res, &StageError{Stage: stage, Err: err}
	}

	stage = StageAnalyze
	res.Analysis = p.deps.Analyzer.Analyze(dataset)
	res.Analysis.CycleID = res.ID
	logger.Info().
		Bool("passes", res.Analysis.Passes).
		Int("sample_size", res.Analysis.SampleSize).
		Int("records", len(dataset)).
		Msg("benford verdict")

	stage = StageRender
	res.Report = p.deps.Reporter.Render(res.Analysis, domain.BenfordReference)
	image, err := p.deps.Charts.Render(res.Report.Chart)
	if err != nil {
		return res, &StageError{Stage: stage, Err: fmt.Errorf("failed to render chart: %w", err)}
	}
	page, err := report.RenderPage(res.Report.Page)
	if err != nil {
		return res, &StageError{Stage: stage, Err: fmt.Errorf("failed to render page: %w", err)}
	}

	stage = StagePublish
	artifacts := []publish.Artifact{
		{Name: p.settings.ChartFile, ContentType: pngContentType, Data: image},
		{Name: p.settings.PageFile, ContentType: htmlContentType, Data: page},
	}
	if err := p.deps.Publisher.Publish(ctx, artifacts); err != nil {
		return res, &StageError{Stage: stage, Err: err}
	}

	p.deps.Metrics.ObserveVerdict(res.Analysis.Passes, res.Analysis.SampleSize)
	return res, nil
}
