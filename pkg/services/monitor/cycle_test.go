package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/benford-monitor/pkg/metrics"
	"github.com/de-tools/benford-monitor/pkg/models/domain"
	"github.com/de-tools/benford-monitor/pkg/publish"
	"github.com/de-tools/benford-monitor/pkg/runtime/chart"
	"github.com/de-tools/benford-monitor/pkg/services/benford"
	"github.com/de-tools/benford-monitor/pkg/services/report"
	"github.com/de-tools/benford-monitor/pkg/services/savings"
	savingsstore "github.com/de-tools/benford-monitor/pkg/store/savings"
)

type aggregatorFunc func(ctx context.Context) (domain.Dataset, []domain.CategorySavings)

func (f aggregatorFunc) Aggregate(ctx context.Context) (domain.Dataset, []domain.CategorySavings) {
	return f(ctx)
}

func staticAggregator(dataset domain.Dataset) savings.Aggregator {
	return aggregatorFunc(func(context.Context) (domain.Dataset, []domain.CategorySavings) {
		return dataset, []domain.CategorySavings{{Category: domain.CategoryGrants, Records: dataset}}
	})
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]publish.Artifact
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, artifacts []publish.Artifact) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, artifacts)
	return nil
}

type failingCharts struct{}

func (failingCharts) Render(domain.ChartSpec) ([]byte, error) {
	return nil, errors.New("no fonts")
}

// benfordDataset holds 1000 records whose leading digits follow the reference exactly.
func benfordDataset() domain.Dataset {
	var dataset domain.Dataset
	for i, pct := range domain.BenfordReference {
		n := int(math.Round(pct * 10))
		for j := 0; j < n; j++ {
			dataset = append(dataset, decimal.NewFromInt(int64((i+1)*100+j%100)))
		}
	}
	return dataset
}

func uniformDataset() domain.Dataset {
	var dataset domain.Dataset
	for d := int64(1); d <= 9; d++ {
		dataset = append(dataset, decimal.NewFromInt(d*100))
	}
	return dataset
}

func newTestPipeline(t *testing.T, deps Dependencies) *Pipeline {
	t.Helper()
	if deps.Analyzer == nil {
		deps.Analyzer = benford.NewAnalyzer(domain.DefaultTolerance)
	}
	if deps.Reporter == nil {
		deps.Reporter = report.NewRenderer(report.Settings{})
	}
	if deps.Charts == nil {
		deps.Charts = chart.NewPNGRenderer(chart.DarkTheme)
	}
	if deps.Publisher == nil {
		deps.Publisher = &recordingPublisher{}
	}
	p, err := NewPipeline(deps, PipelineSettings{})
	require.NoError(t, err)
	return p
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	_, err := NewPipeline(Dependencies{}, PipelineSettings{})
	assert.Error(t, err)

	_, err = NewPipeline(Dependencies{Aggregator: staticAggregator(nil)}, PipelineSettings{})
	assert.Error(t, err)
}

func TestPipeline_RunCycle_PublishesChartThenPage(t *testing.T) {
	// Given
	pub := &recordingPublisher{}
	m := metrics.New()
	p := newTestPipeline(t, Dependencies{
		Aggregator: staticAggregator(benfordDataset()),
		Publisher:  pub,
		Metrics:    m,
	})

	// When
	res, err := p.RunCycle(context.Background())

	// Then
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, res.ID, res.Analysis.CycleID)
	assert.True(t, res.Analysis.Passes)
	assert.Equal(t, 1000, res.Analysis.SampleSize)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))

	require.Len(t, pub.batches, 1)
	batch := pub.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, report.DefaultChartFile, batch[0].Name)
	assert.Equal(t, "image/png", batch[0].ContentType)
	assert.Equal(t, DefaultPageFile, batch[1].Name)

	img, err := png.Decode(bytes.NewReader(batch[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())

	page := string(batch[1].Data)
	assert.Contains(t, page, "<strong>Yes</strong>")
	assert.Contains(t, page, report.DefaultChartFile)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LastVerdict))
	assert.Equal(t, 1000.0, testutil.ToFloat64(m.SampleSize))
}

func TestPipeline_RunCycle_EmptyDatasetStillPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	p := newTestPipeline(t, Dependencies{Aggregator: staticAggregator(nil), Publisher: pub})

	res, err := p.RunCycle(context.Background())

	require.NoError(t, err)
	assert.False(t, res.Analysis.Passes)
	assert.Zero(t, res.Analysis.SampleSize)
	assert.Equal(t, domain.Distribution{}, res.Analysis.Observed)
	require.Len(t, pub.batches, 1)
	assert.Contains(t, string(pub.batches[0][1].Data), "<strong>No</strong>")
}

func TestPipeline_RunCycle_IsIdempotent(t *testing.T) {
	pub := &recordingPublisher{}
	p := newTestPipeline(t, Dependencies{Aggregator: staticAggregator(uniformDataset()), Publisher: pub})

	first, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	second, err := p.RunCycle(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Report.Chart, second.Report.Chart)
	assert.Equal(t, first.Analysis.Passes, second.Analysis.Passes)
	assert.Equal(t, first.Analysis.Observed, second.Analysis.Observed)
	require.Len(t, pub.batches, 2)
	assert.Equal(t, pub.batches[0][0].Data, pub.batches[1][0].Data)
}

func TestPipeline_RunCycle_StageErrors(t *testing.T) {
	tests := []struct {
		name  string
		deps  Dependencies
		stage Stage
	}{
		{
			name: "aggregator panics",
			deps: Dependencies{
				Aggregator: aggregatorFunc(func(context.Context) (domain.Dataset, []domain.CategorySavings) {
					panic("boom")
				}),
			},
			stage: StageAggregate,
		},
		{
			name:  "chart rendering fails",
			deps:  Dependencies{Aggregator: staticAggregator(uniformDataset()), Charts: failingCharts{}},
			stage: StageRender,
		},
		{
			name: "publisher fails",
			deps: Dependencies{
				Aggregator: staticAggregator(uniformDataset()),
				Publisher:  &recordingPublisher{err: errors.New("disk full")},
			},
			stage: StagePublish,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPipeline(t, tc.deps)

			res, err := p.RunCycle(context.Background())

			require.Error(t, err)
			stage, ok := FailedStage(err)
			require.True(t, ok)
			assert.Equal(t, tc.stage, stage)
			assert.NotEmpty(t, res.ID)
			assert.False(t, res.FinishedAt.IsZero())
		})
	}
}

func TestPipeline_RunCycle_FailedPublishKeepsLastVerdict(t *testing.T) {
	m := metrics.New()
	m.ObserveVerdict(true, 10)
	p := newTestPipeline(t, Dependencies{
		Aggregator: staticAggregator(uniformDataset()),
		Publisher:  &recordingPublisher{err: errors.New("disk full")},
		Metrics:    m,
	})

	_, err := p.RunCycle(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LastVerdict))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.SampleSize))
}

func TestPipeline_RunCycle_OneSourceDown(t *testing.T) {
	// Given: leases is down, grants and contracts answer.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category := strings.TrimPrefix(r.URL.Path, "/savings/")
		switch category {
		case "grants":
			fmt.Fprint(w, `{"success":true,"result":{"grants":[{"savings":100},{"savings":200}]}}`)
		case "contracts":
			fmt.Fprint(w, `{"success":true,"result":{"contracts":[{"savings":100},{"savings":300},{"savings":0}]}}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	store, err := savingsstore.NewStore(savingsstore.Settings{BaseURL: srv.URL})
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	m := metrics.New()
	p := newTestPipeline(t, Dependencies{
		Aggregator: savings.NewAggregator(store, domain.DefaultCategories),
		Publisher:  publish.NewFilePublisher(fs, "/site"),
		Metrics:    m,
	})

	// When
	res, err := p.RunCycle(context.Background())

	// Then
	require.NoError(t, err)
	assert.Equal(t, 4, res.Analysis.SampleSize)
	assert.Equal(t, [domain.DigitCount]int{2, 1, 1}, res.Analysis.Counts)
	assert.False(t, res.Analysis.Passes)

	require.Len(t, res.Sources, 3)
	assert.Error(t, res.Sources[1].Err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("leases", metrics.StatusFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("grants", metrics.StatusSuccess)))

	page, err := afero.ReadFile(fs, "/site/index.html")
	require.NoError(t, err)
	assert.Contains(t, string(page), "<strong>No</strong>")

	exists, err := afero.Exists(fs, "/site/"+report.DefaultChartFile)
	require.NoError(t, err)
	assert.True(t, exists)
}
