// Package chart rasterises chart specifications.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// At 72 DPI one point is one pixel, so ChartSpec sizes are image sizes.
const pixelDPI = 72

var ErrEmptyChart = errors.New("chart has no labels or series")

// Renderer produces an encoded image from a chart specification.
type Renderer interface {
	Render(spec domain.ChartSpec) ([]byte, error)
}

type Theme struct {
	Background color.Color
	Foreground color.Color
}

// DarkTheme matches the published page: black canvas, gold text.
var DarkTheme = Theme{
	Background: color.Black,
	Foreground: color.NRGBA{R: 255, G: 215, B: 0, A: 255},
}

type PNGRenderer struct {
	theme Theme
}

func NewPNGRenderer(theme Theme) *PNGRenderer {
	return &PNGRenderer{theme: theme}
}

func (r *PNGRenderer) Render(spec domain.ChartSpec) ([]byte, error) {
	if len(spec.Labels) == 0 || len(spec.Series) == 0 {
		return nil, ErrEmptyChart
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("invalid chart size %dx%d", spec.Width, spec.Height)
	}

	p := plot.New()
	r.style(p)
	p.Title.Text = spec.Title

	// One bar slot per label; bars share the slot width evenly when several bar series
	// are present.
	barSeries := 0
	for _, s := range spec.Series {
		if s.Kind == domain.SeriesBar {
			barSeries++
		}
	}
	slot := vg.Length(spec.Width) * 0.8 / vg.Length(len(spec.Labels))
	barWidth := slot
	if barSeries > 1 {
		barWidth = slot / vg.Length(barSeries)
	}

	barIndex := 0
	for _, s := range spec.Series {
		if len(s.Values) != len(spec.Labels) {
			return nil, fmt.Errorf("series %q has %d values for %d labels", s.Label, len(s.Values), len(spec.Labels))
		}

		switch s.Kind {
		case domain.SeriesBar:
			bars, err := plotter.NewBarChart(plotter.Values(s.Values), barWidth)
			if err != nil {
				return nil, fmt.Errorf("failed to build bar series %q: %w", s.Label, err)
			}
			bars.Color = toColor(s.Fill)
			bars.LineStyle.Color = toColor(s.Border)
			bars.LineStyle.Width = vg.Points(s.BorderWidth)
			if barSeries > 1 {
				bars.Offset = barWidth * vg.Length(float64(barIndex)-float64(barSeries-1)/2)
			}
			barIndex++
			p.Add(bars)
			p.Legend.Add(s.Label, bars)
		case domain.SeriesLine:
			xys := make(plotter.XYs, len(s.Values))
			for i, v := range s.Values {
				xys[i].X = float64(i)
				xys[i].Y = v
			}
			line, points, err := plotter.NewLinePoints(xys)
			if err != nil {
				return nil, fmt.Errorf("failed to build line series %q: %w", s.Label, err)
			}
			line.LineStyle.Color = toColor(s.Border)
			line.LineStyle.Width = vg.Points(math.Max(s.BorderWidth, 1))
			points.GlyphStyle.Color = toColor(s.Border)
			p.Add(line, points)
			p.Legend.Add(s.Label, line, points)
		default:
			return nil, fmt.Errorf("unsupported series kind %q", s.Kind)
		}
	}

	p.NominalX(spec.Labels...)
	if spec.BeginAtZero && p.Y.Min > 0 {
		p.Y.Min = 0
	}
	if p.Y.Max <= p.Y.Min {
		p.Y.Max = p.Y.Min + 1
	}

	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(spec.Width), vg.Length(spec.Height)),
		vgimg.UseDPI(pixelDPI),
		vgimg.UseBackgroundColor(r.theme.Background),
	)
	p.Draw(draw.New(canvas))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PNGRenderer) style(p *plot.Plot) {
	fg := r.theme.Foreground
	p.BackgroundColor = r.theme.Background
	p.Title.TextStyle.Color = fg
	p.Legend.TextStyle.Color = fg
	p.Legend.Top = true

	for _, axis := range []*plot.Axis{&p.X, &p.Y} {
		axis.LineStyle.Color = fg
		axis.Label.TextStyle.Color = fg
		axis.Tick.LineStyle.Color = fg
		axis.Tick.Label.Color = fg
	}
	p.X.Label.Text = "Leading digit"
	p.Y.Label.Text = "%"
}

func toColor(c domain.RGBA) color.Color {
	a := math.Round(math.Min(math.Max(c.A, 0), 1) * 255)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(a)}
}
