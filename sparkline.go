package main

import (
	"errors"
	"io"

	"picks-dashboard/chart"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var errNoSparkline = errors.New("no days to draw")

const (
	sparklineWidth  = 240
	sparklineHeight = 48
)

// writeSparkline draws the success rate trend of p as a small SVG with no
// axes. The value range is pinned to 0-100 so cards stay comparable.
func writeSparkline(w io.Writer, p chart.Payload) error {
	rates := p.SuccessRates
	if len(rates) == 0 {
		return errNoSparkline
	}
	if len(rates) == 1 {
		rates = []float64{rates[0], rates[0]}
	}

	x := make([]float64, len(rates))
	for i := range x {
		x[i] = float64(i)
	}

	stroke := drawing.ParseColor(chart.ColorRate)

	yAxis := gochart.HideYAxis()
	yAxis.Range = &gochart.ContinuousRange{Min: 0, Max: 100}

	graph := gochart.Chart{
		Width:  sparklineWidth,
		Height: sparklineHeight,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 4, Left: 4, Right: 4, Bottom: 4},
		},
		XAxis: gochart.HideXAxis(),
		YAxis: yAxis,
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Style: gochart.Style{
					StrokeColor: stroke,
					StrokeWidth: 2,
					FillColor:   stroke.WithAlpha(40),
				},
				XValues: x,
				YValues: rates,
			},
		},
	}
	return graph.Render(gochart.SVG, w)
}
