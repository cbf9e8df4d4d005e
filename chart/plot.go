package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Plot draws static SVG charts with gonum/plot. Updates re-render the SVG
// and swap it into the same element.
type Plot struct {
	Width  vg.Length
	Height vg.Length
}

func (Plot) Name() string { return "plot" }

func (b Plot) New(id string, cfg Config) (Chart, error) {
	c := &plotChart{id: id, width: b.Width, height: b.Height}
	if c.width == 0 {
		c.width = 8 * vg.Inch
	}
	if c.height == 0 {
		c.height = 4 * vg.Inch
	}
	if err := c.Apply(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

type plotChart struct {
	id     string
	width  vg.Length
	height vg.Length
	svg    []byte
}

func (c *plotChart) ID() string { return c.id }

func (c *plotChart) Apply(cfg Config) error {
	if len(cfg.Categories) == 0 {
		return errors.New("no categories to plot")
	}

	p := plot.New()
	p.Y.Label.Text = cfg.YAxis.Title
	p.Legend.Top = true
	p.NominalX(cfg.Categories...)

	bars := 0
	for _, s := range cfg.Series {
		if s.Kind == KindBar && s.Stack == "" {
			bars++
		}
	}
	barWidth := vg.Points(20)

	var (
		grouped  int
		stackTop = map[string]*plotter.BarChart{}
	)
	for _, s := range cfg.Series {
		if len(s.Data) != len(cfg.Categories) {
			return fmt.Errorf("series %q has %d values for %d categories", s.Name, len(s.Data), len(cfg.Categories))
		}
		col := drawing.ParseColor(s.Color)

		switch s.Kind {
		case KindLine:
			xys := make(plotter.XYs, len(s.Data))
			for i, v := range s.Data {
				xys[i].X = float64(i)
				xys[i].Y = v
			}
			line, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("series %q: %w", s.Name, err)
			}
			line.LineStyle = draw.LineStyle{Color: col, Width: vg.Points(s.StrokeWidth)}
			p.Add(line)
			if s.MarkerSize > 0 {
				points, err := plotter.NewScatter(xys)
				if err != nil {
					return fmt.Errorf("series %q: %w", s.Name, err)
				}
				points.GlyphStyle = draw.GlyphStyle{Color: col, Radius: vg.Points(float64(s.MarkerSize)), Shape: draw.CircleGlyph{}}
				p.Add(points)
			}
			p.Legend.Add(s.Name, line)

		default:
			bar, err := plotter.NewBarChart(plotter.Values(s.Data), barWidth)
			if err != nil {
				return fmt.Errorf("series %q: %w", s.Name, err)
			}
			bar.Color = col
			bar.LineStyle = draw.LineStyle{Color: col, Width: vg.Points(s.StrokeWidth)}
			if s.Stack != "" {
				if below, ok := stackTop[s.Stack]; ok {
					bar.StackOn(below)
				}
				stackTop[s.Stack] = bar
			} else {
				bar.Offset = barWidth * vg.Length(float64(grouped)-float64(bars-1)/2)
				grouped++
			}
			p.Add(bar)
			p.Legend.Add(s.Name, bar)
		}
	}

	p.Y.Min = cfg.YAxis.Min
	if cfg.YAxis.Max != nil {
		p.Y.Max = *cfg.YAxis.Max
	}
	format := cfg.Format
	p.Y.Tick.Marker = plot.TickerFunc(func(lo, hi float64) []plot.Tick {
		ticks := plot.DefaultTicks{}.Ticks(lo, hi)
		for i := range ticks {
			if !ticks[i].IsMinor() {
				ticks[i].Label = format.Format(ticks[i].Value)
			}
		}
		return ticks
	})

	wt, err := p.WriterTo(c.width, c.height, "svg")
	if err != nil {
		return fmt.Errorf("svg writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	c.svg = buf.Bytes()
	return nil
}

// Patch returns the SVG markup as a JavaScript string literal. The JSON
// encoding escapes angle brackets, so it is safe inside a script element.
func (c *plotChart) Patch() (string, error) {
	if len(c.svg) == 0 {
		return "", fmt.Errorf("chart %s: nothing rendered", c.id)
	}
	return jsString(string(c.svg)), nil
}

func (c *plotChart) UpdateScript() string {
	return "document.getElementById(" + jsString(c.id) + ").innerHTML = patch;"
}

func (c *plotChart) Scripts() []string { return nil }

func (c *plotChart) Render(ctx context.Context, w io.Writer) error {
	if _, err := io.WriteString(w, `<div id="`+templ.EscapeString(c.id)+`" class="chart-canvas">`); err != nil {
		return err
	}
	if _, err := w.Write(c.svg); err != nil {
		return err
	}
	_, err := io.WriteString(w, `</div>`)
	return err
}

var _ Backend = Plot{}
